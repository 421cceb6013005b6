// Package archive packages one job's artifacts into a zip for delivery.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
)

// Bundle zips the audio and metadata artifacts under their output
// filenames, deflate-compressed, entirely in memory.
func Bundle(audioName string, audio []byte, metaName string, meta []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	entries := []struct {
		name string
		data []byte
	}{
		{audioName, audio},
		{metaName, meta},
	}
	for _, entry := range entries {
		w, err := zw.Create(entry.name)
		if err != nil {
			return nil, fmt.Errorf("adding %s to archive: %w", entry.name, err)
		}
		if _, err := w.Write(entry.data); err != nil {
			return nil, fmt.Errorf("writing %s to archive: %w", entry.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}
