package utils

import (
	"path/filepath"
	"strings"
)

// contentTypes maps the corpus document extensions to the MIME type sent to
// the remote ingestion endpoint.
var contentTypes = map[string]string{
	".txt":  "text/plain",
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".md":   "text/markdown",
	".html": "text/html",
	".json": "application/json",
}

// DetectContentType returns the MIME type for a file path based on its
// extension. Unknown extensions fall back to application/octet-stream.
func DetectContentType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SupportedExtension reports whether the extension has a known corpus MIME
// mapping.
func SupportedExtension(path string) bool {
	_, ok := contentTypes[strings.ToLower(filepath.Ext(path))]
	return ok
}
