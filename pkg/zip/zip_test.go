package zip

import (
	"archive/zip"
	"bytes"
	"testing"
)

func readEntries(t *testing.T, archive []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	out := make(map[string][]byte, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open entry %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("read entry %s: %v", f.Name, err)
		}
		rc.Close()
		out[f.Name] = buf.Bytes()
	}
	return out
}

func TestArchiveAssets(t *testing.T) {
	archive := ArchiveAssets([]Asset{
		{Filename: "p-1-art", MIME: "image/png", Data: []byte("png-bytes")},
		{Filename: "p-1-model", MIME: "model/gltf-binary", Data: []byte("glb-bytes")},
		{Filename: "p-1-empty", MIME: "image/png"},
		{Filename: "notes.txt", MIME: "text/plain", Data: []byte("hi")},
	})

	entries := readEntries(t, archive)
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	if string(entries["p-1-art.png"]) != "png-bytes" {
		t.Fatalf("png entry = %v", entries)
	}
	if string(entries["p-1-model.glb"]) != "glb-bytes" {
		t.Fatalf("glb entry = %v", entries)
	}
	// Existing extensions and unknown MIME types are left alone.
	if _, ok := entries["notes.txt"]; !ok {
		t.Fatalf("txt entry missing: %v", entries)
	}
}

func TestArchiveAssetsEmpty(t *testing.T) {
	archive := ArchiveAssets(nil)
	if entries := readEntries(t, archive); len(entries) != 0 {
		t.Fatalf("entries = %v", entries)
	}
}
