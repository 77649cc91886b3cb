package matcher

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/yegors/zendmap/internal/registry"
	"github.com/yegors/zendmap/internal/wfs"
	"github.com/yegors/zendmap/pkg/logger"
)

// DefaultRadius is the search radius around a registry site, in metres.
const DefaultRadius = 55.0

// Match pairs a registry site with the installation permit chosen for it.
type Match struct {
	Site     registry.Site
	Feature  wfs.Feature
	Distance float64
}

// BIPTID is the registry identifier the match is reported under.
func (m Match) BIPTID() int64 {
	return m.Site.ID
}

// NoNearbyFeatureError reports a site with no permitted installation within the radius.
type NoNearbyFeatureError struct {
	BIPTID   int64
	Location orb.Point
	Radius   float64
}

func (e *NoNearbyFeatureError) Error() string {
	return fmt.Sprintf("no antenna feature within %gm of site %d at (%.1f, %.1f)",
		e.Radius, e.BIPTID, e.Location[0], e.Location[1])
}

// Matcher selects, per site, the most recently approved installation nearby.
type Matcher struct {
	radius float64
	logger *logger.Logger
}

// NewMatcher creates a matcher with the given search radius (DefaultRadius when not positive)
func NewMatcher(radius float64, logger *logger.Logger) *Matcher {
	if radius <= 0 {
		radius = DefaultRadius
	}
	return &Matcher{
		radius: radius,
		logger: logger.Named("matcher"),
	}
}

// Nearest returns the newest feature strictly within the radius of site. Among features
// approved on the same date the first in input order wins.
func (m *Matcher) Nearest(site registry.Site, features []wfs.Feature) (Match, error) {
	found := false
	var best Match
	for _, f := range features {
		d := planar.Distance(site.Point(), f.Location)
		if d >= m.radius {
			continue
		}
		if !found || f.NewerThan(best.Feature) {
			best = Match{Site: site, Feature: f, Distance: d}
			found = true
		}
	}

	if !found {
		return Match{}, &NoNearbyFeatureError{BIPTID: site.ID, Location: site.Point(), Radius: m.radius}
	}
	return best, nil
}

// MatchAll matches every site. Sites without a nearby feature are returned separately and
// logged; they do not stop the batch.
func (m *Matcher) MatchAll(sites []registry.Site, features []wfs.Feature) ([]Match, []*NoNearbyFeatureError) {
	var matches []Match
	var skipped []*NoNearbyFeatureError

	for _, site := range sites {
		match, err := m.Nearest(site, features)
		var nf *NoNearbyFeatureError
		if errors.As(err, &nf) {
			m.logger.WithSite(site.ID).Warn("No conformity certificate near site",
				logger.Float64("radius", m.radius))
			skipped = append(skipped, nf)
			continue
		}

		m.logger.WithSite(site.ID).Debug("Selected feature",
			logger.String("feature", match.Feature.ID),
			logger.String("dossier", match.Feature.Dossier),
			logger.String("approved", match.Feature.ApprovedRaw),
			logger.Float64("distance", match.Distance))
		matches = append(matches, match)
	}

	m.logger.Info("Matched sites to features",
		logger.Int("sites", len(sites)),
		logger.Int("matched", len(matches)),
		logger.Int("skipped", len(skipped)))
	return matches, skipped
}
