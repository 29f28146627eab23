// Package frontmatter splits a block source file into its YAML front matter
// and template body, validates the front matter against the embedded JSON
// Schema, and decodes it into a Meta describing the block's content binding
// and fallback data.
package frontmatter
