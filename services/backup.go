package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bioshop/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	BackupCompleted = "completed"
	BackupFailed    = "failed"

	backupConcurrency = 4
)

// BackupService exports collections to extended-JSON files on disk.
type BackupService struct {
	dumper      Dumper
	repo        BackupRepository
	dir         string
	collections []string
	log         *zap.Logger
	now         func() time.Time
}

func NewBackupService(dumper Dumper, repo BackupRepository, dir string, collections []string, log *zap.Logger) *BackupService {
	return &BackupService{
		dumper:      dumper,
		repo:        repo,
		dir:         dir,
		collections: collections,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create dumps every collection into a new timestamped directory and records
// the result. A failed backup is recorded too, with its error.
func (s *BackupService) Create(ctx context.Context) (*models.Backup, error) {
	name := s.now().Format("20060102T150405Z")
	dir := filepath.Join(s.dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	parts := make([]models.BackupCollection, len(s.collections))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(backupConcurrency)
	for i, coll := range s.collections {
		g.Go(func() error {
			file := coll + ".json"
			f, err := os.Create(filepath.Join(dir, file))
			if err != nil {
				return err
			}
			n, err := s.dumper.Dump(gctx, coll, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("dump %s: %w", coll, err)
			}
			parts[i] = models.BackupCollection{Name: coll, Documents: n, File: file}
			return nil
		})
	}
	dumpErr := g.Wait()

	backup := &models.Backup{
		Name:        name,
		Path:        dir,
		Collections: parts,
		SizeBytes:   dirSize(dir),
		Status:      BackupCompleted,
	}
	if dumpErr != nil {
		backup.Status = BackupFailed
		backup.Error = dumpErr.Error()
	}
	if err := s.repo.Create(ctx, backup); err != nil {
		return nil, fmt.Errorf("record backup: %w", err)
	}
	if dumpErr != nil {
		s.log.Error("backup failed", zap.String("name", name), zap.Error(dumpErr))
		return backup, fmt.Errorf("backup %s: %w", name, dumpErr)
	}
	s.log.Info("backup completed", zap.String("name", name), zap.Int64("bytes", backup.SizeBytes))
	return backup, nil
}

// Delete removes a backup's directory and its record.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return notFound("backup not found")
	}
	backup, err := s.repo.Get(ctx, oid)
	if err != nil {
		return orNotFound(err, "backup not found")
	}
	if !within(s.dir, backup.Path) {
		return fmt.Errorf("backup path %q is outside %q", backup.Path, s.dir)
	}
	if err := os.RemoveAll(backup.Path); err != nil {
		return fmt.Errorf("remove backup files: %w", err)
	}
	return orNotFound(s.repo.Delete(ctx, oid), "backup not found")
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != "." && !strings.HasPrefix(rel, "..")
}

func dirSize(dir string) int64 {
	var total int64
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if info, err := d.Info(); err == nil {
			total += info.Size()
		}
		return nil
	})
	return total
}
