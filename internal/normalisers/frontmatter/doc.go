// Package frontmatter extracts structured fields from the YAML frontmatter
// block at the top of a markdown note.
//
// A block opens with a "---" line on the very first line of the file and
// closes with a "---" or "..." line. Anything that is not a well-formed
// mapping yields an empty field map and a diagnostic; extraction never
// fails the caller.
package frontmatter
