// Package zip bundles a pipeline's generated assets into one download.
package zip

import (
	"archive/zip"
	"bytes"
	"strings"
)

// Asset is one archive entry. Filename may omit the extension; it is then
// derived from the MIME type.
type Asset struct {
	Filename string
	MIME     string
	Data     []byte
}

var mimeExt = map[string]string{
	"image/png":         ".png",
	"image/jpeg":        ".jpg",
	"model/gltf-binary": ".glb",
	"application/zip":   ".zip",
}

// ArchiveAssets builds an in-memory zip of the assets. Entries without data
// are skipped rather than written empty.
func ArchiveAssets(assets []Asset) []byte {
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for _, asset := range assets {
		if len(asset.Data) == 0 {
			continue
		}
		w, err := zw.Create(entryName(asset))
		if err != nil {
			continue
		}
		if _, err := w.Write(asset.Data); err != nil {
			return nil
		}
	}
	_ = zw.Close()
	return buf.Bytes()
}

func entryName(asset Asset) string {
	name := asset.Filename
	if name == "" {
		name = "asset"
	}
	if !strings.Contains(name, ".") {
		if ext, ok := mimeExt[asset.MIME]; ok {
			name += ext
		}
	}
	return name
}
