package constants

import (
	"path/filepath"
	"sort"
	"strings"
)

// SourceKind is the family of input document an extraction backend handles.
type SourceKind string

const (
	PDF   SourceKind = "PDF"
	IMAGE SourceKind = "IMAGE"
	TEXT  SourceKind = "TEXT"
)

// extKinds maps normalized extensions (lowercase, without '.') to the backend family.
var extKinds = map[string]SourceKind{
	"pdf":      PDF,
	"jpg":      IMAGE,
	"jpeg":     IMAGE,
	"png":      IMAGE,
	"tif":      IMAGE,
	"tiff":     IMAGE,
	"bmp":      IMAGE,
	"webp":     IMAGE,
	"heic":     IMAGE,
	"heif":     IMAGE,
	"txt":      TEXT,
	"text":     TEXT,
	"md":       TEXT,
	"markdown": TEXT,
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind returns the source kind for an extension, or "" when unsupported.
func MapExtToKind(ext string) SourceKind {
	return extKinds[NormalizeExt(ext)]
}

// KindOfPath is MapExtToKind applied to the extension of path.
func KindOfPath(path string) SourceKind {
	return MapExtToKind(filepath.Ext(path))
}

// IsHEICExt reports whether ext needs a HEIC/HEIF conversion before OCR.
func IsHEICExt(ext string) bool {
	switch NormalizeExt(ext) {
	case "heic", "heif":
		return true
	}
	return false
}

// SupportedExtensions returns every accepted input extension, sorted.
func SupportedExtensions() []string {
	out := make([]string, 0, len(extKinds))
	for ext := range extKinds {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
