package pipeline

import (
	"roadwatch/internal/models"
)

// Aggregator folds per-frame outcomes into run totals. Pure accumulation:
// no I/O, no failure mode.
type Aggregator struct {
	total     int
	positives []models.PositiveFrame
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Observe folds one sampled frame's outcome. Boxes always count toward the
// total; the frame joins the positive list only when it had boxes and its
// annotation was written. Frames arrive in order, so the list stays ordered.
func (a *Aggregator) Observe(frameIndex, boxCount int, resultPath string, renderErr error) {
	a.total += boxCount
	if boxCount > 0 && renderErr == nil {
		a.positives = append(a.positives, models.PositiveFrame{
			FrameIndex: frameIndex,
			BoxCount:   boxCount,
			ResultPath: resultPath,
		})
	}
}

// TotalCount returns the sum of boxes across all observed frames.
func (a *Aggregator) TotalCount() int {
	return a.total
}

// Positives returns the ordered positive-frame list.
func (a *Aggregator) Positives() []models.PositiveFrame {
	return a.positives
}
