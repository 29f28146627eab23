// Package registry builds the block registry. It scans a block tree for
// component leaves, extracts metadata from each leaf's front matter and
// template body, merges the results into one manifest with lookup indices,
// and writes those artifacts atomically. Load reads them back for the
// resolver, the preview service and the HTTP server.
package registry
