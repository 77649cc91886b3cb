package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// StatusOperational marks a site that is in service.
const StatusOperational = "O"

// Site is one antenna site from the national registry. X and Y are Lambert 72 metres.
type Site struct {
	ID        int64    `json:"ID"`
	X         float64  `json:"X"`
	Y         float64  `json:"Y"`
	Status    string   `json:"Status"`
	Owners    []string `json:"-"`
	Eigenaar1 string   `json:"Eigenaar1"`
	Eigenaar2 string   `json:"Eigenaar2"`
	Eigenaar3 string   `json:"Eigenaar3"`
}

// Point returns the site location.
func (s Site) Point() orb.Point {
	return orb.Point{s.X, s.Y}
}

// OwnedBy reports whether any owner field contains match.
func (s Site) OwnedBy(match string) bool {
	if match == "" {
		return false
	}
	for _, owner := range s.Owners {
		if strings.Contains(owner, match) {
			return true
		}
	}
	return false
}

// rawSite mirrors the registry JSON. Numbers arrive either as JSON numbers or as strings,
// owners as strings or null.
type rawSite struct {
	ID        flexNumber `json:"ID"`
	X         flexNumber `json:"X"`
	Y         flexNumber `json:"Y"`
	Status    *string    `json:"Status"`
	Eigenaar1 *string    `json:"Eigenaar1"`
	Eigenaar2 *string    `json:"Eigenaar2"`
	Eigenaar3 *string    `json:"Eigenaar3"`
}

type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", s, err)
		}
		n.value, n.set = v, true
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid number %s: %w", data, err)
	}
	n.value, n.set = v, true
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func (r rawSite) site() (Site, error) {
	if !r.ID.set {
		return Site{}, fmt.Errorf("site without ID")
	}
	if !r.X.set || !r.Y.set {
		return Site{}, fmt.Errorf("site %d without coordinates", int64(r.ID.value))
	}
	s := Site{
		ID:        int64(r.ID.value),
		X:         r.X.value,
		Y:         r.Y.value,
		Status:    deref(r.Status),
		Eigenaar1: deref(r.Eigenaar1),
		Eigenaar2: deref(r.Eigenaar2),
		Eigenaar3: deref(r.Eigenaar3),
	}
	for _, owner := range []string{s.Eigenaar1, s.Eigenaar2, s.Eigenaar3} {
		if owner != "" {
			s.Owners = append(s.Owners, owner)
		}
	}
	return s, nil
}
