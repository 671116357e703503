package services

import (
	"os"
	"path/filepath"
	"strings"

	"famstore/config"
	"famstore/logger"

	"github.com/disintegration/imaging"
)

var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true,
	".gif": true, ".bmp": true, ".webp": true,
}

func IsImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return imageExtensions[ext]
}

// ThumbnailService renders JPEG thumbnails for image uploads.
// Everything here is best effort: a failed thumbnail never fails the
// upload that triggered it.
type ThumbnailService struct {
	root string
}

func NewThumbnailService(basePath string) *ThumbnailService {
	return &ThumbnailService{root: filepath.Join(basePath, "thumbnails")}
}

func (s *ThumbnailService) Path(ownerID, itemID string) string {
	return filepath.Join(s.root, ownerID, itemID+".jpg")
}

func (s *ThumbnailService) Generate(srcPath, ownerID, itemID string) {
	cfg := config.AppConfig.Thumbnail

	dst := s.Path(ownerID, itemID)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		logger.Debugf("thumbnail dir for %s failed: %v", ownerID, err)
		return
	}

	img, err := imaging.Open(srcPath)
	if err != nil {
		logger.Debugf("thumbnail open %s failed: %v", srcPath, err)
		return
	}

	thumb := imaging.Fit(img, cfg.Width, cfg.Height, imaging.Lanczos)
	if err := imaging.Save(thumb, dst, imaging.JPEGQuality(cfg.Quality)); err != nil {
		logger.Debugf("thumbnail save %s failed: %v", dst, err)
	}
}

func (s *ThumbnailService) Remove(ownerID, itemID string) {
	_ = os.Remove(s.Path(ownerID, itemID))
}
