package certificate

import (
	"math"
	"sort"
)

// Columns is the canonical column order every template handler converges on.
var Columns = []string{
	"antenna",
	"azimuth",
	"height",
	"width",
	"frequencyMHz",
	"heightAboveGround",
	"power",
	"electricalTilt",
	"mechanicalTilt",
	"horizontalAperture",
	"verticalAperture",
	"gain",
}

// SectorRecord is one antenna sector as recovered from a certificate table.
// Numeric fields are nil when the source cell could not be coerced (tolerant templates only).
type SectorRecord struct {
	Antenna            string   `json:"antenna"`
	Azimuth            *float64 `json:"azimuth"`
	Height             *float64 `json:"height"`
	Width              *float64 `json:"width"`
	FrequencyMHz       *float64 `json:"frequencyMHz"`
	HeightAboveGround  *float64 `json:"heightAboveGround"`
	Power              *float64 `json:"power"`
	ElectricalTilt     *float64 `json:"electricalTilt"`
	MechanicalTilt     *float64 `json:"mechanicalTilt"`
	HorizontalAperture *float64 `json:"horizontalAperture"`
	VerticalAperture   *float64 `json:"verticalAperture"`
	Gain               *float64 `json:"gain"`
}

// numericFields returns pointers to the numeric slots in canonical column order (Columns[1:]).
func (r *SectorRecord) numericFields() []**float64 {
	return []**float64{
		&r.Azimuth,
		&r.Height,
		&r.Width,
		&r.FrequencyMHz,
		&r.HeightAboveGround,
		&r.Power,
		&r.ElectricalTilt,
		&r.MechanicalTilt,
		&r.HorizontalAperture,
		&r.VerticalAperture,
		&r.Gain,
	}
}

// Frequency returns the sector frequency in MHz, NaN when unknown.
func (r SectorRecord) Frequency() float64 {
	if r.FrequencyMHz == nil {
		return math.NaN()
	}
	return *r.FrequencyMHz
}

// Float is a convenience for building records by hand.
func Float(v float64) *float64 {
	return &v
}

// Table is the canonical sector table of one certificate document.
type Table []SectorRecord

// SortByFrequency orders the table ascending by frequency; unknown frequencies sort last.
func (t Table) SortByFrequency() {
	sort.SliceStable(t, func(i, j int) bool {
		fi, fj := t[i].Frequency(), t[j].Frequency()
		if math.IsNaN(fj) {
			return !math.IsNaN(fi)
		}
		return fi < fj
	})
}

// WithinBand keeps the sectors whose frequency lies within tolerance of target, edges included.
// For 800/50 both 750 and 850 MHz are kept; a strict bound would drop them.
func (t Table) WithinBand(targetMHz, toleranceMHz float64) Table {
	kept := Table{}
	for _, r := range t {
		if math.Abs(r.Frequency()-targetMHz) <= toleranceMHz {
			kept = append(kept, r)
		}
	}
	return kept
}

// legacyBands are the 3G allocations dropped by templates without a technology column.
var legacyBands = []struct {
	centerMHz float64
	windowMHz float64
}{
	{centerMHz: 900, windowMHz: 50},
	{centerMHz: 2100, windowMHz: 100},
}

// WithoutLegacyBands drops sectors inside a legacy 3G window, and sectors with no frequency.
func (t Table) WithoutLegacyBands() Table {
	kept := Table{}
	for _, r := range t {
		f := r.Frequency()
		if math.IsNaN(f) {
			continue
		}
		legacy := false
		for _, b := range legacyBands {
			if math.Abs(f-b.centerMHz) <= b.windowMHz {
				legacy = true
				break
			}
		}
		if !legacy {
			kept = append(kept, r)
		}
	}
	return kept
}
