// Package scaffold generates new block source files from an embedded
// template. It powers the "blockreg create block" command, producing a leaf
// at the right path with valid front matter and an entry {{define}}.
package scaffold
