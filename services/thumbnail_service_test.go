package services

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"famstore/config"
)

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png failed: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode png failed: %v", err)
	}
}

func TestIsImageFile(t *testing.T) {
	cases := map[string]bool{
		"photo.JPG":    true,
		"scan.png":     true,
		"clip.webp":    true,
		"report.pdf":   false,
		"archive.zip":  false,
		"no-extension": false,
	}
	for name, want := range cases {
		if got := IsImageFile(name); got != want {
			t.Fatalf("IsImageFile(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestThumbnailGenerateAndRemove(t *testing.T) {
	config.AppConfig = &config.Config{Thumbnail: config.ThumbnailConfig{Width: 64, Height: 64, Quality: 80}}

	dir := t.TempDir()
	src := filepath.Join(dir, "source.png")
	writeTestPNG(t, src, 200, 100)

	svc := NewThumbnailService(dir)
	svc.Generate(src, "owner-1", "item-1")

	thumbPath := svc.Path("owner-1", "item-1")
	if _, err := os.Stat(thumbPath); err != nil {
		t.Fatalf("expected thumbnail at %s: %v", thumbPath, err)
	}

	svc.Remove("owner-1", "item-1")
	if _, err := os.Stat(thumbPath); !os.IsNotExist(err) {
		t.Fatalf("remove must delete the thumbnail")
	}
}

func TestThumbnailGenerateBadSourceIsSilent(t *testing.T) {
	config.AppConfig = &config.Config{Thumbnail: config.ThumbnailConfig{Width: 64, Height: 64, Quality: 80}}

	dir := t.TempDir()
	src := filepath.Join(dir, "not-an-image.png")
	if err := os.WriteFile(src, []byte("plain text"), 0o644); err != nil {
		t.Fatalf("write file failed: %v", err)
	}

	svc := NewThumbnailService(dir)
	svc.Generate(src, "owner-1", "item-1")

	if _, err := os.Stat(svc.Path("owner-1", "item-1")); !os.IsNotExist(err) {
		t.Fatalf("bad source must not leave a thumbnail")
	}
}
