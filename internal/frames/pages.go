package frames

import (
	"log/slog"

	"discmenu/internal/logging"
)

// PageGroup is one discrete visual menu state: a run of consecutive frames
// whose pairwise difference stays below the page threshold. The first frame
// of the run is the representative.
type PageGroup struct {
	PageIndex      int
	Representative *Frame
	FramePaths     []string
}

// ClassifyPages walks frames in file order and splits them into page groups
// wherever the mean absolute grayscale difference between consecutive frames
// exceeds threshold.
func ClassifyPages(paths []string, threshold float64, logger *slog.Logger) ([]PageGroup, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	if threshold <= 0 {
		threshold = 4
	}
	if len(paths) == 0 {
		return nil, nil
	}

	var groups []PageGroup
	var prev *Frame
	for _, path := range paths {
		frame, err := LoadFrame(path)
		if err != nil {
			return nil, err
		}
		if prev == nil {
			groups = append(groups, PageGroup{
				PageIndex:      0,
				Representative: frame,
				FramePaths:     []string{path},
			})
			prev = frame
			continue
		}
		diff := MeanAbsDiff(prev.Gray, frame.Gray)
		if diff > threshold {
			groups = append(groups, PageGroup{
				PageIndex:      len(groups),
				Representative: frame,
				FramePaths:     []string{path},
			})
			logger.Debug("page boundary",
				logging.Int(logging.FieldPage, len(groups)-1),
				logging.Float64("frame_diff", diff))
		} else {
			last := &groups[len(groups)-1]
			last.FramePaths = append(last.FramePaths, path)
		}
		prev = frame
	}
	return groups, nil
}
