package loader

import (
	"fmt"
	"strings"
)

// textExts lists extensions whose content is used verbatim.
var textExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".rst":      true,
	".html":     true,
	".htm":      true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
	".toml":     true,
	".xml":      true,
	".log":      true,
	".go":       true,
	".py":       true,
	".js":       true,
	".ts":       true,
	".java":     true,
	".c":        true,
	".h":        true,
	".cpp":      true,
	".rs":       true,
	".sh":       true,
	".sql":      true,
}

// SupportedExt reports whether the extension routes to an extractor.
func SupportedExt(ext string) bool {
	ext = strings.ToLower(ext)
	if textExts[ext] {
		return true
	}
	switch ext {
	case ".csv", ".pdf", ".xlsx", ".xls":
		return true
	}
	return false
}

// Extract converts raw file content into plain text based on the name's
// extension.
func Extract(name string, data []byte) (string, error) {
	ext := strings.ToLower(extOf(name))
	switch {
	case textExts[ext]:
		return string(data), nil
	case ext == ".csv":
		return extractCSV(data)
	case ext == ".pdf":
		return extractPDF(data), nil
	case ext == ".xlsx":
		return extractExcel(data)
	case ext == ".xls":
		return extractXLS(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func extOf(name string) string {
	if idx := strings.LastIndex(name, "."); idx != -1 {
		return name[idx:]
	}
	return ""
}
