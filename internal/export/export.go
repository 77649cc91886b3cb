package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/jszwec/csvutil"
	"github.com/xuri/excelize/v2"

	"github.com/yegors/zendmap/internal/stations"
)

// Row is one sector of one base station, flattened for spreadsheets and simulators.
type Row struct {
	Operator           string   `csv:"operator"`
	BIPTID             int64    `csv:"bipt_id"`
	X                  float64  `csv:"x"`
	Y                  float64  `csv:"y"`
	Sector             int      `csv:"sector"`
	Azimuth            *float64 `csv:"azimuth"`
	Height             *float64 `csv:"height"`
	Width              *float64 `csv:"width"`
	FrequencyMHz       *float64 `csv:"frequencyMHz"`
	HeightAboveGround  *float64 `csv:"heightAboveGround"`
	Power              *float64 `csv:"power"`
	ElectricalTilt     *float64 `csv:"electricalTilt"`
	MechanicalTilt     *float64 `csv:"mechanicalTilt"`
	HorizontalAperture *float64 `csv:"horizontalAperture"`
	VerticalAperture   *float64 `csv:"verticalAperture"`
	Gain               *float64 `csv:"gain"`
}

func (r Row) values() []interface{} {
	out := []interface{}{r.Operator, r.BIPTID, r.X, r.Y, r.Sector}
	for _, v := range []*float64{
		r.Azimuth, r.Height, r.Width, r.FrequencyMHz, r.HeightAboveGround, r.Power,
		r.ElectricalTilt, r.MechanicalTilt, r.HorizontalAperture, r.VerticalAperture, r.Gain,
	} {
		if v == nil {
			out = append(out, "")
			continue
		}
		out = append(out, *v)
	}
	return out
}

// Rows flattens base stations, numbering sectors from 1 within each station.
func Rows(operator string, list []stations.BaseStation) []Row {
	var rows []Row
	for _, bs := range list {
		for i, s := range bs.Sectors {
			rows = append(rows, Row{
				Operator:           operator,
				BIPTID:             bs.BIPTID,
				X:                  bs.Location.X,
				Y:                  bs.Location.Y,
				Sector:             i + 1,
				Azimuth:            s.Azimuth,
				Height:             s.Height,
				Width:              s.Width,
				FrequencyMHz:       s.FrequencyMHz,
				HeightAboveGround:  s.HeightAboveGround,
				Power:              s.Power,
				ElectricalTilt:     s.ElectricalTilt,
				MechanicalTilt:     s.MechanicalTilt,
				HorizontalAperture: s.HorizontalAperture,
				VerticalAperture:   s.VerticalAperture,
				Gain:               s.Gain,
			})
		}
	}
	return rows
}

// WriteCSV writes rows with a header line.
func WriteCSV(path string, rows []Row) error {
	var data []byte
	if len(rows) == 0 {
		header, err := csvutil.Header(Row{}, "csv")
		if err != nil {
			return fmt.Errorf("failed to build CSV header: %w", err)
		}
		data = []byte(strings.Join(header, ",") + "\n")
	} else {
		var err error
		data, err = csvutil.Marshal(rows)
		if err != nil {
			return fmt.Errorf("failed to encode CSV: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Sheet is one worksheet of the planning workbook.
type Sheet struct {
	Name string
	Rows []Row
}

// WriteWorkbook writes one worksheet per entry, each with a header row.
func WriteWorkbook(path string, sheets []Sheet) error {
	header, err := csvutil.Header(Row{}, "csv")
	if err != nil {
		return fmt.Errorf("failed to build header: %w", err)
	}
	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}

	x := excelize.NewFile()
	defer x.Close()

	for i, sheet := range sheets {
		idx, err := x.NewSheet(sheet.Name)
		if err != nil {
			return fmt.Errorf("failed to add sheet %s: %w", sheet.Name, err)
		}
		if i == 0 {
			x.SetActiveSheet(idx)
		}

		if err := x.SetSheetRow(sheet.Name, "A1", &headerCells); err != nil {
			return fmt.Errorf("failed to write header of %s: %w", sheet.Name, err)
		}
		for r, row := range sheet.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			values := row.values()
			if err := x.SetSheetRow(sheet.Name, cell, &values); err != nil {
				return fmt.Errorf("failed to write %s row %d: %w", sheet.Name, r+1, err)
			}
		}
	}
	if len(sheets) > 0 {
		x.DeleteSheet("Sheet1")
	}

	if err := x.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
