package pipeline

import (
	"time"

	"github.com/montanaflynn/stats"

	"github.com/yegors/zendmap/internal/registry"
)

// Summary counts what happened to one operator's sites.
type Summary struct {
	Operator  string `json:"operator"`
	Sites     int    `json:"sites"`
	Features  int    `json:"features"`
	Matched   int    `json:"matched"`
	Skipped   int    `json:"skipped"`    // no feature within the search radius
	Failed    int    `json:"failed"`     // certificate missing, not downloadable or not readable
	NoSectors int    `json:"no_sectors"` // certificate read but nothing in the band
	Emitted   int    `json:"emitted"`

	// compared with the previous output in the same directory
	Added   int `json:"added"`
	Updated int `json:"updated"`
	Removed int `json:"removed"`

	MedianDistance float64 `json:"median_distance_m"`
	MaxDistance    float64 `json:"max_distance_m"`
}

// Report describes one pipeline run.
type Report struct {
	RunID      string              `json:"run_id"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
	BBox       string              `json:"bbox"`
	Statistics registry.Statistics `json:"statistics"`
	Operators  []Summary           `json:"operators"`
}

// Emitted is the number of base stations written across operators.
func (r *Report) Emitted() int {
	n := 0
	for _, s := range r.Operators {
		n += s.Emitted
	}
	return n
}

// distanceStats fills the match distance columns. Empty input leaves them at zero.
func (s *Summary) distanceStats(distances []float64) {
	if len(distances) == 0 {
		return
	}
	data := stats.Float64Data(distances)
	if median, err := data.Median(); err == nil {
		s.MedianDistance, _ = stats.Round(median, 1)
	}
	if maxDistance, err := data.Max(); err == nil {
		s.MaxDistance, _ = stats.Round(maxDistance, 1)
	}
}
