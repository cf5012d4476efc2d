// Package model holds the domain graph edited through diagrams.
//
// Elements live in an arena addressed by opaque ids. Containment is a tree whose
// parent links are back-references by id; cross-references are plain id lists
// mirrored in an inverse index so deletions can find and clean dangling settings.
// The Modifier is the only writer.
package model
