// Package normalisers holds the MetadataExtractor implementations that turn
// raw note bytes into tracked field maps. The frontmatter extractor handles
// YAML frontmatter in markdown notes.
package normalisers
