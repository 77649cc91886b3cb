package certificate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frequencies(t Table) []float64 {
	out := make([]float64, 0, len(t))
	for _, r := range t {
		out = append(out, r.Frequency())
	}
	return out
}

func TestNormalize_TemplateAKeepsOnly4G(t *testing.T) {
	g := RawGrid{
		templateAHeader,
		templateARow("1", "L8-1", "806", "4G"),
		templateARow("2", "U21-1", "2140", "3G"),
		templateARow("3", "L18-1", "1815", "4G"),
		templateARow("4", "G9-1", "935", "2G"),
	}

	template, table, err := Normalize(g)
	require.NoError(t, err)
	assert.Equal(t, TemplateA, template)
	require.Len(t, table, 2)

	first := table[0]
	assert.Equal(t, "L8-1", first.Antenna)
	assert.Equal(t, 120.0, *first.Azimuth)
	assert.Equal(t, 2.6, *first.Height)
	assert.Equal(t, 0.3, *first.Width)
	assert.Equal(t, 806.0, *first.FrequencyMHz)
	assert.Equal(t, 31.5, *first.HeightAboveGround)
	assert.Equal(t, 46.0, *first.Power)
	assert.Equal(t, 4.0, *first.ElectricalTilt)
	assert.Equal(t, 0.0, *first.MechanicalTilt)
	assert.Equal(t, 65.0, *first.HorizontalAperture)
	assert.Equal(t, 7.5, *first.VerticalAperture)
	assert.Equal(t, 17.1, *first.Gain)

	assert.Equal(t, "L18-1", table[1].Antenna)
}

func TestNormalize_TemplateAWithout4GIsEmpty(t *testing.T) {
	g := RawGrid{
		templateAHeader,
		templateARow("1", "U21-1", "2140", "3G"),
		// a bad cell in a dropped row must not matter
		templateARow("2", "U9-1", "n.v.t.", "3G"),
	}

	_, table, err := Normalize(g)
	require.NoError(t, err)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestNormalize_TemplateABadCellFailsGrid(t *testing.T) {
	row := templateARow("1", "L8-1", "806", "4G")
	row[7] = "46 W"
	g := RawGrid{templateAHeader, row}

	_, table, err := Normalize(g)
	require.Error(t, err)
	assert.Nil(t, table)

	var unsupported *UnsupportedTemplateError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, TemplateA, unsupported.Template)

	var numeric *NumericError
	require.True(t, errors.As(err, &numeric))
	assert.Equal(t, "power", numeric.Column)
	assert.Equal(t, "46 W", numeric.Value)
}

func TestNormalize_TemplateAElectricalTiltRangeIsNull(t *testing.T) {
	row := templateARow("1", "L8-1", "806", "4G")
	row[8] = "2-12"
	g := RawGrid{templateAHeader, row}

	_, table, err := Normalize(g)
	require.NoError(t, err)
	require.Len(t, table, 1)
	assert.Nil(t, table[0].ElectricalTilt)
	assert.NotNil(t, table[0].MechanicalTilt)
}

func TestNormalize_TemplateARaggedRowsAreDropped(t *testing.T) {
	short := templateARow("2", "L8-2", "806", "4G")[:12]
	g := RawGrid{templateAHeader, templateARow("1", "L8-1", "806", "4G"), short}

	_, table, err := Normalize(g)
	require.NoError(t, err)
	assert.Len(t, table, 1)
}

func TestNormalize_TemplateAMissingRowNumberColumn(t *testing.T) {
	header := append([]string(nil), templateAHeader...)
	header[0] = "Volgnummer"
	g := RawGrid{header, templateARow("1", "L8-1", "806", "4G")}

	_, _, err := Normalize(g)
	var unsupported *UnsupportedTemplateError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, TemplateA, unsupported.Template)
}

func TestNormalize_TemplateBDropsLegacyBands(t *testing.T) {
	g := RawGrid{
		templateBHeader,
		templateBRow("1", "A", "750"),
		templateBRow("2", "B", "800"),
		templateBRow("3", "C", "820"),
		templateBRow("4", "D", "900"),
		templateBRow("5", "E", "2100"),
		templateBRow("6", "F", "950"),
		templateBRow("7", "G", "2200"),
		templateBRow("8", "H", "951"),
	}

	template, table, err := Normalize(g)
	require.NoError(t, err)
	assert.Equal(t, TemplateB, template)
	// 950 and 2200 sit on the window edge and are excluded
	assert.Equal(t, []float64{750, 800, 820, 951}, frequencies(table))
	assert.Equal(t, 1.4, *table[0].Height)
	assert.Equal(t, 43.2, *table[0].Power)
}

func TestNormalize_TemplateBBadCellFailsGrid(t *testing.T) {
	bad := templateBRow("2", "B", "800")
	bad[12] = "?"
	g := RawGrid{templateBHeader, templateBRow("1", "A", "800"), bad}

	_, _, err := Normalize(g)
	var unsupported *UnsupportedTemplateError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, TemplateB, unsupported.Template)
	assert.Equal(t, 3, unsupported.Rows)
	assert.Equal(t, 13, unsupported.Cols)
	assert.Equal(t, templateBHeader, unsupported.FirstRow)

	var numeric *NumericError
	require.True(t, errors.As(err, &numeric))
	assert.Equal(t, "gain", numeric.Column)
	assert.Equal(t, 1, numeric.Row)
}

func TestNormalize_TemplateCCoercesBadCellsToNull(t *testing.T) {
	g := templateCGrid(
		templateCRow("1", "L8", "806", "n.b."),
		templateCRow("2", "U21", "2110", "40"),
		templateCRow("3", "L26", "2650", "12,5"),
		templateCRow("4", "?", "onbekend", "40"),
	)

	template, table, err := Normalize(g)
	require.NoError(t, err)
	assert.Equal(t, TemplateC, template)
	require.Len(t, table, 2)

	assert.Equal(t, "L8", table[0].Antenna)
	assert.Nil(t, table[0].Power)
	assert.Equal(t, 10.0, *table[0].Azimuth)
	// column 8 (combined tilt, 6) is dropped: electrical tilt is 4, mechanical 2
	assert.Equal(t, 4.0, *table[0].ElectricalTilt)
	assert.Equal(t, 2.0, *table[0].MechanicalTilt)
	assert.Equal(t, 16.0, *table[0].Gain)

	assert.Nil(t, table[1].Power, "decimal comma is not read in this layout")
	assert.Nil(t, table[1].Height)
	assert.Nil(t, table[1].Width)
}

func TestNormalize_TemplateCDropsCommaFrequency(t *testing.T) {
	g := templateCGrid(
		templateCRow("1", "L8", "806,0", "40"),
		templateCRow("2", "L8b", "806", "40"),
	)

	_, table, err := Normalize(g)
	require.NoError(t, err)
	require.Len(t, table, 1, "a frequency that does not parse is dropped with the legacy bands")
	assert.Equal(t, "L8b", table[0].Antenna)
}

func TestNormalize_DecimalCommaOnlyInStrictLayouts(t *testing.T) {
	_, tableB, err := Normalize(RawGrid{templateBHeader, templateBRow("1", "A", "800")})
	require.NoError(t, err)
	require.Len(t, tableB, 1)
	assert.Equal(t, 43.2, *tableB[0].Power)

	_, tableC, err := Normalize(templateCGrid(templateCRow("1", "L8", "806", "12,5")))
	require.NoError(t, err)
	require.Len(t, tableC, 1)
	assert.Nil(t, tableC[0].Power)
	assert.Equal(t, 24.0, *tableC[0].HeightAboveGround)
}

func TestNormalize_TemplateCWithOnlyHeaders(t *testing.T) {
	_, table, err := Normalize(templateCGrid())
	require.NoError(t, err)
	assert.Empty(t, table)
}

func TestNormalize_NonAntennaTable(t *testing.T) {
	template, table, err := Normalize(RawGrid{{"Datum", "Handtekening"}})
	require.NoError(t, err)
	assert.Equal(t, NonAntennaTable, template)
	assert.NotNil(t, table)
	assert.Empty(t, table)
}

func TestNormalize_UnsupportedCarriesDiagnostics(t *testing.T) {
	g := wideGrid(12, "Antennegegevens")

	template, table, err := Normalize(g)
	assert.Equal(t, Unsupported, template)
	assert.Nil(t, table)

	var unsupported *UnsupportedTemplateError
	require.True(t, errors.As(err, &unsupported))
	assert.Equal(t, Unsupported, unsupported.Template)
	assert.Equal(t, 2, unsupported.Rows)
	assert.Equal(t, 12, unsupported.Cols)
	assert.Equal(t, "Antennegegevens", unsupported.FirstRow[0])
	assert.Nil(t, unsupported.Cause)
	assert.Contains(t, err.Error(), "2x12")
}

func TestParseLocaleFloat(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "12,5", want: 12.5},
		{in: "12.5", want: 12.5},
		{in: " 806 ", want: 806},
		{in: "-2", want: -2},
		{in: "", wantErr: true},
		{in: "n.v.t.", wantErr: true},
		{in: "1.234,5", wantErr: true},
		{in: "Inf", wantErr: true},
		{in: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLocaleFloat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
