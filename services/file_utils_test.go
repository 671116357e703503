package services

import "testing"

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report.pdf":           "report.pdf",
		"../../etc/passwd":     "passwd",
		"dir/inner/name.txt":   "name.txt",
		"weird..name.txt":      "weird_name.txt",
		"back\\slash.txt":      "back_slash.txt",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidItemName(t *testing.T) {
	cases := map[string]bool{
		"Photos":     true,
		"a.txt":      true,
		"..hidden":   true,
		"":           false,
		".":          false,
		"..":         false,
		"a/b":        false,
		`a\b`:        false,
		"../escape":  false,
	}
	for name, want := range cases {
		if got := validItemName(name); got != want {
			t.Fatalf("validItemName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestResolveMimeType(t *testing.T) {
	cases := []struct {
		declared string
		filename string
		want     string
	}{
		{"text/markdown", "readme.md", "text/markdown"},
		{"", "photo.jpg", "image/jpeg"},
		{"application/octet-stream", "notes.txt", "text/plain"},
		{"", "movie.mp4", "video/mp4"},
		{"", "mystery.unknownext", "application/octet-stream"},
		{"", "no-extension", "application/octet-stream"},
	}
	for _, tc := range cases {
		if got := resolveMimeType(tc.declared, tc.filename); got != tc.want {
			t.Fatalf("resolveMimeType(%q, %q) = %q, want %q", tc.declared, tc.filename, got, tc.want)
		}
	}
}
