package geo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// BBox is an area in Lambert 72 metres.
type BBox struct {
	Left   float64 `toml:"left" json:"left"`
	Bottom float64 `toml:"bottom" json:"bottom"`
	Right  float64 `toml:"right" json:"right"`
	Top    float64 `toml:"top" json:"top"`
}

// DefaultBBox is the 4 km square the tool was first run on.
var DefaultBBox = BBox{Left: 102843.5303, Bottom: 191922.9061, Right: 106843.5303, Top: 195922.9061}

// ParseBBox reads "left,bottom,right,top".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bounding box %q: want left,bottom,right,top", s)
	}

	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bounding box %q: %w", s, err)
		}
		v[i] = f
	}

	b := BBox{Left: v[0], Bottom: v[1], Right: v[2], Top: v[3]}
	return b, b.Validate()
}

// Validate checks that the box has a positive area.
func (b BBox) Validate() error {
	if b.Left >= b.Right || b.Bottom >= b.Top {
		return fmt.Errorf("bounding box %s is empty", b)
	}
	return nil
}

func (b BBox) String() string {
	return fmt.Sprintf("%g,%g,%g,%g", b.Left, b.Bottom, b.Right, b.Top)
}

// Bound returns the box as an orb bound.
func (b BBox) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.Left, b.Bottom}, Max: orb.Point{b.Right, b.Top}}
}

// Contains reports whether p lies inside the box, edges included.
func (b BBox) Contains(p orb.Point) bool {
	return b.Bound().Contains(p)
}

// WGS84 converts the lower-left and upper-right corners for the registry query.
func (b BBox) WGS84() (from, to LatLon) {
	return ToWGS84(orb.Point{b.Left, b.Bottom}), ToWGS84(orb.Point{b.Right, b.Top})
}
