package sqlite

import (
	"encoding/json"
	"time"

	"github.com/yegors/zendmap/internal/stations"
)

// RunRecord is one pipeline run
type RunRecord struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	BBox       string          `json:"bbox"`
	Summary    json.RawMessage `json:"summary,omitempty"` // per-operator batch counts
}

// StationRecord is a base station as stored for one run and operator
type StationRecord struct {
	ID       int64             `json:"id"`
	RunID    string            `json:"run_id"`
	Operator string            `json:"operator"`
	BIPTID   int64             `json:"bipt_id"`
	Location stations.Location `json:"location"`
	Dossier  string            `json:"dossier,omitempty"`
	Distance float64           `json:"distance"` // metres between site and permit
	Sectors  []stations.Sector `json:"sectors"`
}
