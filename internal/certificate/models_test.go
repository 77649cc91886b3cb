package certificate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func tableOf(freqs ...float64) Table {
	t := Table{}
	for _, f := range freqs {
		t = append(t, SectorRecord{FrequencyMHz: Float(f)})
	}
	return t
}

func TestWithinBand(t *testing.T) {
	table := tableOf(750, 800, 820, 900, 2100)

	assert.Equal(t, []float64{750, 800, 820}, frequencies(table.WithinBand(800, 50)))
	assert.Equal(t, []float64{800, 820}, frequencies(table.WithinBand(800, 49.5)))
	assert.Empty(t, table.WithinBand(3500, 50))
	assert.NotNil(t, table.WithinBand(3500, 50))

	edges := tableOf(749.9, 850, 850.1)
	assert.Equal(t, []float64{850}, frequencies(edges.WithinBand(800, 50)), "the upper edge is inside the band")
}

func TestWithoutLegacyBands(t *testing.T) {
	table := tableOf(750, 800, 820, 900, 2100)
	table = append(table, SectorRecord{Antenna: "no frequency"})

	assert.Equal(t, []float64{750, 800, 820}, frequencies(table.WithoutLegacyBands()))
}

func TestSortByFrequency(t *testing.T) {
	table := Table{
		{Antenna: "a", FrequencyMHz: Float(2650)},
		{Antenna: "b"},
		{Antenna: "c", FrequencyMHz: Float(806)},
		{Antenna: "d", FrequencyMHz: Float(1815)},
		{Antenna: "e", FrequencyMHz: Float(806)},
	}

	table.SortByFrequency()

	var order []string
	for _, r := range table {
		order = append(order, r.Antenna)
	}
	assert.Equal(t, []string{"c", "e", "d", "a", "b"}, order)
}
