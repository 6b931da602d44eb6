package utils

import "testing"

func TestDetectContentType(t *testing.T) {
	cases := map[string]string{
		"notes.txt":       "text/plain",
		"paper.PDF":       "application/pdf",
		"legacy.doc":      "application/msword",
		"report.docx":     "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"README.md":       "text/markdown",
		"index.html":      "text/html",
		"meta.json":       "application/json",
		"archive.tar.gz":  "application/octet-stream",
		"no_extension":    "application/octet-stream",
		"dir/nested.Txt":  "text/plain",
	}

	for path, want := range cases {
		if got := DetectContentType(path); got != want {
			t.Errorf("DetectContentType(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestSupportedExtension(t *testing.T) {
	if !SupportedExtension("a.md") {
		t.Error("expected .md to be supported")
	}
	if SupportedExtension("a.exe") {
		t.Error("expected .exe to be unsupported")
	}
}
