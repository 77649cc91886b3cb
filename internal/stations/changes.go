package stations

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"sort"
)

// ChangeType classifies a station difference between two runs
type ChangeType string

const (
	Added   ChangeType = "added"
	Updated ChangeType = "updated"
	Removed ChangeType = "removed"
)

// Change is one station that differs from the previous output
type Change struct {
	Type    ChangeType
	BIPTID  int64
	Station *BaseStation // nil for removed stations
}

// DetectChanges compares two station lists by registry id. A station counts as updated when
// its location or any sector value differs. Changes are ordered by id.
func DetectChanges(previous, current []BaseStation) []Change {
	previousMap := make(map[int64]BaseStation, len(previous))
	for _, bs := range previous {
		previousMap[bs.BIPTID] = bs
	}

	changes := []Change{}
	seen := make(map[int64]bool, len(current))
	for i := range current {
		bs := &current[i]
		seen[bs.BIPTID] = true

		before, exists := previousMap[bs.BIPTID]
		switch {
		case !exists:
			changes = append(changes, Change{Type: Added, BIPTID: bs.BIPTID, Station: bs})
		case hasChanges(before, *bs):
			changes = append(changes, Change{Type: Updated, BIPTID: bs.BIPTID, Station: bs})
		}
	}

	for id := range previousMap {
		if !seen[id] {
			changes = append(changes, Change{Type: Removed, BIPTID: id})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].BIPTID < changes[j].BIPTID })
	return changes
}

// hasChanges compares the published part of two stations
func hasChanges(previous, current BaseStation) bool {
	if previous.Location != current.Location {
		return true
	}
	if len(previous.Sectors) != len(current.Sectors) {
		return true
	}
	return !reflect.DeepEqual(previous.Sectors, current.Sectors)
}

// ReadJSON reads a file written by WriteJSON. A missing file yields no stations.
func ReadJSON(path string) ([]BaseStation, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var list []BaseStation
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return list, nil
}
