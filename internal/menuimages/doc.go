// Package menuimages is the pipeline stage that recovers button rectangles
// from menu-carrying VOBs. It layers an SPU decode path (demux, reassemble,
// RLE decode, connected components, clustering) over rendered-frame page
// classification, aligns the two coordinate systems via OCR, regularizes the
// resulting geometry, and emits one cropped PNG per button together with the
// menu_images.json artifact. A dark-region fallback covers discs whose SPU
// data is absent or corrupt.
package menuimages
