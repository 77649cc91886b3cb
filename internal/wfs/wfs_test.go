package wfs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/zendmap/internal/geo"
	"github.com/yegors/zendmap/pkg/logger"
)

const layer = `{"type":"FeatureCollection","features":[
 {"type":"Feature","id":"us_zndant_pnt.1","geometry":{"type":"Point","coordinates":[104000,192500]},
  "properties":{"operatornaam":"Proximus NV","goedkeuringsdatum":"2019-03-12Z","conformiteitsattest":"https://example.test/1.pdf","dossiernummer":"2019-0042"}},
 {"type":"Feature","id":"us_zndant_pnt.2","geometry":{"type":"Point","coordinates":[104020,192510]},
  "properties":{"operatornaam":"Proximus NV","goedkeuringsdatum":"2021-06-01Z","conformiteitsattest":"https://example.test/2.pdf","dossiernummer":51234}},
 {"type":"Feature","id":"us_zndant_pnt.3","geometry":{"type":"Point","coordinates":[104010,192490]},
  "properties":{"operatornaam":"Orange Belgium NV","goedkeuringsdatum":"2020-01-01Z","conformiteitsattest":"https://example.test/3.pdf","dossiernummer":"2020-0007"}},
 {"type":"Feature","id":"us_zndant_pnt.4","geometry":{"type":"Point","coordinates":[90000,150000]},
  "properties":{"operatornaam":"Telenet Group BVBA","goedkeuringsdatum":"2018-01-01Z","conformiteitsattest":"https://example.test/4.pdf","dossiernummer":"2018-0001"}},
 {"type":"Feature","id":"us_zndant_pnt.5","geometry":{"type":"LineString","coordinates":[[104000,192500],[104100,192600]]},
  "properties":{"operatornaam":"Proximus NV"}}
]}`

func TestSource_DownloadsOnceThenUsesCache(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(layer))
	}))
	defer server.Close()

	cache := filepath.Join(t.TempDir(), "data", "zendantennes.geojson")
	source := NewSource(server.URL, cache, 5*time.Second, logger.Nop())

	first, err := source.Features(context.Background(), geo.DefaultBBox)
	require.NoError(t, err)
	assert.Len(t, first, 3)
	assert.FileExists(t, cache)

	second, err := source.Features(context.Background(), geo.DefaultBBox)
	require.NoError(t, err)
	assert.Len(t, second, 3)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestSource_RejectsServiceException(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<ServiceExceptionReport><ServiceException>busy</ServiceException></ServiceExceptionReport>`))
	}))
	defer server.Close()

	cache := filepath.Join(t.TempDir(), "zendantennes.geojson")
	source := NewSource(server.URL, cache, 5*time.Second, logger.Nop())

	_, err := source.Features(context.Background(), geo.DefaultBBox)
	require.Error(t, err)
	assert.NoFileExists(t, cache)
}

func TestParse(t *testing.T) {
	features, err := Parse([]byte(layer))
	require.NoError(t, err)
	require.Len(t, features, 4, "line geometries are skipped")

	f := features[1]
	assert.Equal(t, "us_zndant_pnt.2", f.ID)
	assert.Equal(t, "Proximus NV", f.Operator)
	assert.Equal(t, "51234", f.Dossier)
	assert.Equal(t, "https://example.test/2.pdf", f.AttestURL)
	assert.Equal(t, orb.Point{104020, 192510}, f.Location)
	assert.Equal(t, time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC), f.Approved)
}

func TestClipAndByOperator(t *testing.T) {
	features, err := Parse([]byte(layer))
	require.NoError(t, err)

	clipped := Clip(features, geo.DefaultBBox)
	assert.Len(t, clipped, 3)

	proximus := ByOperator(clipped, "Proximus NV")
	assert.Len(t, proximus, 2)
	assert.Empty(t, ByOperator(clipped, "Proximus"))
}

func TestNewerThan(t *testing.T) {
	old := Feature{Approved: time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC), ApprovedRaw: "2019-01-01Z"}
	recent := Feature{Approved: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), ApprovedRaw: "2021-01-01Z"}
	unknown := Feature{ApprovedRaw: "onbekend"}

	assert.True(t, recent.NewerThan(old))
	assert.False(t, old.NewerThan(recent))
	assert.True(t, old.NewerThan(unknown))
	assert.False(t, unknown.NewerThan(old))
}

func TestWriteGeoJSON(t *testing.T) {
	features, err := Parse([]byte(layer))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "antennes_pxs.geojson")
	require.NoError(t, WriteGeoJSON(path, ByOperator(features, "Proximus NV")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	back, err := Parse(data)
	require.NoError(t, err)
	require.Len(t, back, 2)
	assert.Equal(t, "2019-0042", back[0].Dossier)
	assert.Equal(t, "51234", back[1].Dossier)
}

func TestWriteGeoJSON_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "antennes_org.geojson")
	require.NoError(t, WriteGeoJSON(path, nil))

	back, err := Parse(mustRead(t, path))
	require.NoError(t, err)
	assert.Empty(t, back)
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}
