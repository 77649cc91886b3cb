package certificate

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SidecarPath is where the parsed table of a document is cached.
func SidecarPath(documentPath string) string {
	return documentPath + ".json"
}

// ReadSidecar loads a cached table. The boolean is false when no sidecar exists;
// existence is the only validity check.
func ReadSidecar(documentPath string) (Table, bool, error) {
	data, err := os.ReadFile(SidecarPath(documentPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read sidecar: %w", err)
	}

	table := Table{}
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, true, fmt.Errorf("failed to decode sidecar %s: %w", SidecarPath(documentPath), err)
	}
	return table, true, nil
}

// WriteSidecar stores a table next to its document as an array of records.
func WriteSidecar(documentPath string, table Table) error {
	if table == nil {
		table = Table{}
	}
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode sidecar: %w", err)
	}

	path := SidecarPath(documentPath)
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create sidecar: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write sidecar: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move sidecar into place: %w", err)
	}
	return nil
}
