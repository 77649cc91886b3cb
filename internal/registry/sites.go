package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DecodeSites reads the registry JSON array. Records without an ID or coordinates are
// rejected as a whole: the registry never returns them for a valid query.
func DecodeSites(r io.Reader) ([]Site, error) {
	var raw []rawSite
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse sites: %w", err)
	}

	sites := make([]Site, 0, len(raw))
	for i, rs := range raw {
		s, err := rs.site()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		sites = append(sites, s)
	}
	return sites, nil
}

// LoadFile reads a registry response saved to disk.
func LoadFile(path string) ([]Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sites file: %w", err)
	}
	defer f.Close()
	return DecodeSites(f)
}

// Operational keeps the sites that are in service.
func Operational(sites []Site) []Site {
	out := make([]Site, 0, len(sites))
	for _, s := range sites {
		if s.Status == StatusOperational {
			out = append(out, s)
		}
	}
	return out
}

// OwnedBy keeps the sites with an owner matching match.
func OwnedBy(sites []Site, match string) []Site {
	var out []Site
	for _, s := range sites {
		if s.OwnedBy(match) {
			out = append(out, s)
		}
	}
	return out
}
