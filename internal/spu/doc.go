// Package spu reassembles, parses, and decodes DVD Sub-Picture Units: the
// size-prefixed packets inside a menu VOB's private stream that carry the
// RLE-compressed highlight overlays this pipeline turns into button
// rectangles.
package spu
