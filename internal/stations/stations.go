package stations

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/internal/matcher"
)

// Location is a Lambert 72 position in metres.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sector is a certificate sector without its antenna label.
type Sector struct {
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

func sectorOf(r certificate.SectorRecord) Sector {
	return Sector{
		Azimuth:            r.Azimuth,
		Height:             r.Height,
		Width:              r.Width,
		FrequencyMHz:       r.FrequencyMHz,
		HeightAboveGround:  r.HeightAboveGround,
		Power:              r.Power,
		ElectricalTilt:     r.ElectricalTilt,
		MechanicalTilt:     r.MechanicalTilt,
		HorizontalAperture: r.HorizontalAperture,
		VerticalAperture:   r.VerticalAperture,
		Gain:               r.Gain,
	}
}

// BaseStation is one registry site with the sectors of its certificate.
type BaseStation struct {
	BIPTID   int64    `json:"bipt_id"`
	Location Location `json:"location"`
	Sectors  []Sector `json:"sectors"`

	// catalog metadata, not part of the published file
	Dossier  string  `json:"-"`
	Distance float64 `json:"-"`
}

// Band selects sectors by frequency.
type Band struct {
	CenterMHz    float64 `toml:"center_mhz"`
	ToleranceMHz float64 `toml:"tolerance_mhz"`
}

// DefaultBand is LTE 800.
var DefaultBand = Band{CenterMHz: 800, ToleranceMHz: 50}

// Build joins a matched site with its certificate table. ok is false when no sector falls
// in the band; such sites are left out of the output.
func Build(m matcher.Match, table certificate.Table, band Band) (station BaseStation, ok bool) {
	relevant := table.WithinBand(band.CenterMHz, band.ToleranceMHz)
	if len(relevant) == 0 {
		return BaseStation{}, false
	}

	sectors := make([]Sector, 0, len(relevant))
	for _, r := range relevant {
		sectors = append(sectors, sectorOf(r))
	}

	return BaseStation{
		BIPTID:   m.BIPTID(),
		Location: Location{X: m.Site.X, Y: m.Site.Y},
		Sectors:  sectors,
		Dossier:  m.Feature.Dossier,
		Distance: m.Distance,
	}, true
}

// WriteJSON writes the stations as an indented JSON array.
func WriteJSON(path string, list []BaseStation) error {
	if list == nil {
		list = []BaseStation{}
	}
	data, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode base stations: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
