// Package filesystem lists and reads notes from a local directory tree and
// optionally watches the tree with fsnotify.
//
// Hidden files and directories (any path component starting with ".") are
// never listed or watched. Document IDs are derived from the relative path,
// so a note keeps its ID across restarts and across moves of the root.
package filesystem
