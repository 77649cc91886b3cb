package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jszwec/csvutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yegors/zendmap/internal/certificate"
	"github.com/yegors/zendmap/internal/stations"
)

func sampleStations() []stations.BaseStation {
	return []stations.BaseStation{
		{
			BIPTID:   1001,
			Location: stations.Location{X: 104000.5, Y: 192500},
			Sectors: []stations.Sector{
				{Azimuth: certificate.Float(0), FrequencyMHz: certificate.Float(806), Gain: certificate.Float(17.1)},
				{Azimuth: certificate.Float(120), FrequencyMHz: certificate.Float(796), Gain: certificate.Float(16)},
			},
		},
		{
			BIPTID:   1003,
			Location: stations.Location{X: 106000, Y: 194000},
			Sectors: []stations.Sector{
				{Azimuth: certificate.Float(240), FrequencyMHz: certificate.Float(816), Gain: certificate.Float(15.5)},
			},
		},
	}
}

func TestRows(t *testing.T) {
	rows := Rows("pxs", sampleStations())

	require.Len(t, rows, 3)
	assert.Equal(t, 1, rows[0].Sector)
	assert.Equal(t, 2, rows[1].Sector)
	assert.Equal(t, 1, rows[2].Sector)
	assert.Equal(t, int64(1003), rows[2].BIPTID)
	assert.Equal(t, "pxs", rows[2].Operator)
	assert.Nil(t, rows[0].Power)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basestations_pxs.csv")
	rows := Rows("pxs", sampleStations())
	require.NoError(t, WriteCSV(path, rows))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "operator,bipt_id,x,y,sector,azimuth,"))

	var back []Row
	require.NoError(t, csvutil.Unmarshal(data, &back))
	assert.Equal(t, rows, back)
}

func TestWriteCSV_HeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basestations_org.csv")
	require.NoError(t, WriteCSV(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(data), "\n"))
	assert.True(t, strings.HasSuffix(string(data), "gain\n"))
}

func TestWriteWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "basestations.xlsx")
	sheets := []Sheet{
		{Name: "pxs", Rows: Rows("pxs", sampleStations())},
		{Name: "org"},
	}
	require.NoError(t, WriteWorkbook(path, sheets))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"pxs", "org"}, f.GetSheetList())

	rows, err := f.GetRows("pxs")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "operator", rows[0][0])
	assert.Equal(t, "gain", rows[0][len(rows[0])-1])
	assert.Equal(t, "1001", rows[1][1])
	assert.Equal(t, "806", rows[1][8])
	assert.Equal(t, "", rows[1][10], "missing power stays empty")

	orgRows, err := f.GetRows("org")
	require.NoError(t, err)
	assert.Len(t, orgRows, 1)
}
