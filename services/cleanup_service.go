package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"famstore/config"
	"famstore/logger"
	"famstore/repositories"
)

// CleanupService reaps leftovers under the temp tree: chunk session
// directories whose upload was abandoned, and staged archives whose
// download never finished draining.
type CleanupService struct {
	progress repositories.UploadProgressRepository
	tempRoot string
	stageDir string
}

func NewCleanupService(progress repositories.UploadProgressRepository, basePath string) *CleanupService {
	tempRoot := filepath.Join(basePath, "temp")
	return &CleanupService{
		progress: progress,
		tempRoot: tempRoot,
		stageDir: filepath.Join(tempRoot, "archives"),
	}
}

// Start launches the reaper loop. It stops when ctx is cancelled.
func (s *CleanupService) Start(ctx context.Context) {
	interval := time.Duration(config.AppConfig.Storage.TempFileCleanupInterval) * time.Second
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

func (s *CleanupService) sweep(ctx context.Context) {
	retention := time.Duration(config.AppConfig.Storage.TempFileRetention) * time.Second
	cutoff := time.Now().Add(-retention)

	removedSessions := s.sweepSessions(ctx, cutoff)
	removedArchives := s.sweepArchives(cutoff)
	if removedSessions > 0 || removedArchives > 0 {
		logger.Infof("cleanup: removed %d stale upload sessions, %d stale archives", removedSessions, removedArchives)
	}
}

func (s *CleanupService) sweepSessions(ctx context.Context, cutoff time.Time) int {
	entries, err := os.ReadDir(s.tempRoot)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "archives" {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		uploadID := entry.Name()
		if err := os.RemoveAll(filepath.Join(s.tempRoot, uploadID)); err != nil {
			logger.Warnf("cleanup: failed to remove session %s: %v", uploadID, err)
			continue
		}
		_ = s.progress.Clear(ctx, uploadID)
		removed++
	}
	return removed
}

func (s *CleanupService) sweepArchives(cutoff time.Time) int {
	entries, err := os.ReadDir(s.stageDir)
	if err != nil {
		return 0
	}

	removed := 0
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.stageDir, entry.Name())); err != nil {
			logger.Warnf("cleanup: failed to remove archive %s: %v", entry.Name(), err)
			continue
		}
		removed++
	}
	return removed
}
