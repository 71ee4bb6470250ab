package menuimages

import (
	"errors"
	"log/slog"

	"discmenu/internal/cluster"
	"discmenu/internal/geometry"
	"discmenu/internal/logging"
	"discmenu/internal/spu"
)

// pageRects holds the ordered button rectangles decoded from one
// menu-flagged SPU packet, positionally paired with a rendered page.
type pageRects struct {
	Mode  cluster.Mode
	Rects []geometry.Rect
}

// extractSPURects demuxes the menu container and turns each complete
// menu-flagged SPU packet into an ordered rectangle set. The returned slice
// is indexed by packet order: index n pairs with rendered page n. Packets
// that fail to decode keep their slot with zero rectangles so the positional
// pairing downstream stays intact.
func extractSPURects(psData []byte, params cluster.Params, logger *slog.Logger) []pageRects {
	if logger == nil {
		logger = logging.NewNop()
	}

	var pages []pageRects
	for _, packet := range spu.Assemble(psData, logger) {
		ctrl, err := spu.ParseControl(packet)
		if err != nil {
			if errors.Is(err, spu.ErrNotMenu) {
				logger.Debug("skipping subtitle packet",
					logging.Int("substream", int(packet.SubstreamID)))
				continue
			}
			logger.Debug("skipping packet without usable control sequence",
				logging.Int("substream", int(packet.SubstreamID)),
				logging.Error(err))
			continue
		}

		bitmap, err := spu.DecodeBitmap(packet, ctrl)
		if err != nil {
			logger.Debug("dropping packet with corrupt rle bitmap",
				logging.Int(logging.FieldPage, len(pages)),
				logging.Error(err))
			pages = append(pages, pageRects{Mode: cluster.ModeNone})
			continue
		}

		result := cluster.Select(bitmap.Regions(), params)
		logger.Debug("clustered spu packet",
			logging.Int(logging.FieldPage, len(pages)),
			logging.String("mode", string(result.Mode)),
			logging.Int("rects", len(result.Rects)))
		pages = append(pages, pageRects{Mode: result.Mode, Rects: result.Rects})
	}
	return pages
}
