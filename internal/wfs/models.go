package wfs

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Property names on the antenna layer.
const (
	propOperator    = "operatornaam"
	propApproval    = "goedkeuringsdatum"
	propAttest      = "conformiteitsattest"
	propDossier     = "dossiernummer"
	defaultTypeName = "us:us_zndant_pnt"
)

// DefaultURL serves every permitted antenna installation in Flanders as GeoJSON, Lambert 72.
const DefaultURL = "https://www.mercator.vlaanderen.be/raadpleegdienstenmercatorpubliek/us/ows?service=WFS&version=1.0.0&request=GetFeature&typeName=" + defaultTypeName + "&outputFormat=application/json"

// Feature is one permitted antenna installation.
type Feature struct {
	ID          string
	Operator    string
	Approved    time.Time // zero when the date is missing or unreadable
	ApprovedRaw string
	AttestURL   string
	Dossier     string
	Location    orb.Point
	source      *geojson.Feature
}

// GeoJSON returns the feature as read, for re-export.
func (f Feature) GeoJSON() *geojson.Feature {
	if f.source != nil {
		return f.source
	}
	gf := geojson.NewFeature(f.Location)
	gf.Properties[propOperator] = f.Operator
	gf.Properties[propApproval] = f.ApprovedRaw
	gf.Properties[propAttest] = f.AttestURL
	gf.Properties[propDossier] = f.Dossier
	return gf
}

// NewerThan orders features by approval date, newest first. Unreadable dates sort after
// readable ones and fall back to the raw text.
func (f Feature) NewerThan(other Feature) bool {
	switch {
	case !f.Approved.IsZero() && !other.Approved.IsZero():
		return f.Approved.After(other.Approved)
	case !f.Approved.IsZero():
		return true
	case !other.Approved.IsZero():
		return false
	default:
		return f.ApprovedRaw > other.ApprovedRaw
	}
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02Z",
	"2006-01-02",
	"02/01/2006",
}

func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// propString reads a property that may be encoded as a string or a number.
func propString(p geojson.Properties, key string) string {
	switch v := p[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func fromGeoJSON(gf *geojson.Feature) (Feature, bool) {
	var location orb.Point
	switch g := gf.Geometry.(type) {
	case orb.Point:
		location = g
	case orb.MultiPoint:
		if len(g) == 0 {
			return Feature{}, false
		}
		location = g[0]
	default:
		return Feature{}, false
	}

	approvedRaw := propString(gf.Properties, propApproval)
	f := Feature{
		Operator:    propString(gf.Properties, propOperator),
		Approved:    parseDate(approvedRaw),
		ApprovedRaw: approvedRaw,
		AttestURL:   propString(gf.Properties, propAttest),
		Dossier:     propString(gf.Properties, propDossier),
		Location:    location,
		source:      gf,
	}
	if gf.ID != nil {
		f.ID = fmt.Sprint(gf.ID)
	}
	return f, true
}
