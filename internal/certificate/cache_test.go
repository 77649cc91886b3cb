package certificate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSidecarRoundTrip(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "2021-1187.pdf")

	_, tableA, err := Normalize(RawGrid{templateAHeader, templateARow("1", "L8-1", "806", "4G")})
	require.NoError(t, err)
	_, tableC, err := Normalize(templateCGrid(templateCRow("1", "L8", "806", "onbekend")))
	require.NoError(t, err)
	original := append(tableA, tableC...)

	require.NoError(t, WriteSidecar(doc, original))

	loaded, ok, err := ReadSidecar(doc)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, original, loaded)
	assert.Nil(t, loaded[1].Power, "null survives the round trip")
}

func TestReadSidecar_Missing(t *testing.T) {
	table, ok, err := ReadSidecar(filepath.Join(t.TempDir(), "absent.pdf"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, table)
}

func TestReadSidecar_Corrupt(t *testing.T) {
	doc := filepath.Join(t.TempDir(), "broken.pdf")
	require.NoError(t, os.WriteFile(SidecarPath(doc), []byte("{not json"), 0o644))

	_, ok, err := ReadSidecar(doc)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestSidecarPath(t *testing.T) {
	assert.Equal(t, "data/attesten_pxs/123.pdf.json", SidecarPath("data/attesten_pxs/123.pdf"))
}
