// Package cluster turns the connected regions of a decoded SPU overlay into
// ordered button rectangles, handling both large-highlight and per-glyph
// authoring styles and two-column page layouts.
package cluster
