// Package reliability keeps the record store healthy and backed up.
package reliability

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/fintrack/internal/clock"
)

const (
	archivePrefix    = "fintrack-backup-"
	archiveSuffix    = ".tar.gz"
	archiveStamp     = "2006-01-02-150405"
	metadataFile     = "backup-metadata.json"
	formatVersion    = "1"
	minBackupsToKeep = 3
)

// Snapshotter produces a consistent copy of a database file.
type Snapshotter interface {
	Name() string
	Snapshot(ctx context.Context, dest string) error
}

// BackupMetadata is written into every archive.
type BackupMetadata struct {
	Timestamp time.Time          `json:"timestamp"`
	Version   string             `json:"version"`
	Databases []DatabaseMetadata `json:"databases"`
}

// DatabaseMetadata describes one database file in an archive.
type DatabaseMetadata struct {
	Name      string `json:"name"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"size_bytes"`
	Checksum  string `json:"checksum"`
}

// BackupInfo describes one stored archive.
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	AgeHours  int64     `json:"age_hours"`
}

// BackupService snapshots the record store into a tar.gz archive and
// uploads it to an object store.
type BackupService struct {
	db         Snapshotter
	store      ObjectStore
	clock      clock.Clock
	stagingDir string
	log        zerolog.Logger
}

// NewBackupService creates a backup service staging archives under dataDir.
func NewBackupService(db Snapshotter, store ObjectStore, clk clock.Clock, dataDir string, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:         db,
		store:      store,
		clock:      clk,
		stagingDir: filepath.Join(dataDir, "backup-staging"),
		log:        log.With().Str("service", "backup").Logger(),
	}
}

// CreateAndUpload snapshots the database and uploads the archive.
func (s *BackupService) CreateAndUpload(ctx context.Context) (BackupInfo, error) {
	s.log.Info().Msg("Starting backup")
	startTime := s.clock.Now()

	if err := os.MkdirAll(s.stagingDir, 0755); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to create staging directory: %w", err)
	}
	defer os.RemoveAll(s.stagingDir)

	dbFile := s.db.Name() + ".db"
	dbPath := filepath.Join(s.stagingDir, dbFile)
	if err := s.db.Snapshot(ctx, dbPath); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to snapshot %s: %w", s.db.Name(), err)
	}

	info, err := os.Stat(dbPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to stat snapshot: %w", err)
	}
	checksum, err := fileChecksum(dbPath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to checksum snapshot: %w", err)
	}

	metadata := BackupMetadata{
		Timestamp: startTime.UTC(),
		Version:   formatVersion,
		Databases: []DatabaseMetadata{{
			Name:      s.db.Name(),
			Filename:  dbFile,
			SizeBytes: info.Size(),
			Checksum:  checksum,
		}},
	}
	if err := writeMetadata(filepath.Join(s.stagingDir, metadataFile), metadata); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to write metadata: %w", err)
	}

	archiveName := archivePrefix + startTime.UTC().Format(archiveStamp) + archiveSuffix
	archivePath := filepath.Join(s.stagingDir, archiveName)
	if err := createArchive(archivePath, s.stagingDir, []string{dbFile, metadataFile}); err != nil {
		return BackupInfo{}, fmt.Errorf("failed to create archive: %w", err)
	}

	archive, err := os.Open(archivePath)
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to open archive: %w", err)
	}
	defer archive.Close()

	archiveInfo, err := archive.Stat()
	if err != nil {
		return BackupInfo{}, fmt.Errorf("failed to stat archive: %w", err)
	}

	if err := s.store.Upload(ctx, archiveName, archive); err != nil {
		return BackupInfo{}, err
	}

	s.log.Info().
		Dur("duration_ms", s.clock.Now().Sub(startTime)).
		Str("archive", archiveName).
		Int64("size_bytes", archiveInfo.Size()).
		Msg("Backup uploaded")

	return BackupInfo{
		Filename:  archiveName,
		Timestamp: startTime.UTC(),
		SizeBytes: archiveInfo.Size(),
	}, nil
}

// List returns stored archives, newest first. Objects whose names do not
// parse as archives are ignored.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	objects, err := s.store.List(ctx, archivePrefix)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	backups := make([]BackupInfo, 0, len(objects))
	for _, obj := range objects {
		if !strings.HasPrefix(obj.Key, archivePrefix) || !strings.HasSuffix(obj.Key, archiveSuffix) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(obj.Key, archivePrefix), archiveSuffix)
		ts, err := time.Parse(archiveStamp, stamp)
		if err != nil {
			s.log.Warn().Str("filename", obj.Key).Msg("Failed to parse timestamp from filename")
			continue
		}
		backups = append(backups, BackupInfo{
			Filename:  obj.Key,
			Timestamp: ts,
			SizeBytes: obj.Size,
			AgeHours:  int64(now.Sub(ts).Hours()),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Rotate deletes archives older than retentionDays, always keeping the
// newest three. Zero retention keeps everything. It returns how many
// archives were deleted.
func (s *BackupService) Rotate(ctx context.Context, retentionDays int) (int, error) {
	backups, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	if retentionDays <= 0 || len(backups) <= minBackupsToKeep {
		return 0, nil
	}

	cutoff := s.clock.Now().AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, b := range backups[minBackupsToKeep:] {
		if !b.Timestamp.Before(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, b.Filename); err != nil {
			s.log.Error().Err(err).Str("filename", b.Filename).Msg("Failed to delete old backup")
			continue
		}
		s.log.Info().Str("filename", b.Filename).Time("timestamp", b.Timestamp).Msg("Deleted old backup")
		deleted++
	}

	s.log.Info().
		Int("deleted", deleted).
		Int("remaining", len(backups)-deleted).
		Msg("Backup rotation completed")
	return deleted, nil
}

// Job returns a scheduler-compatible run function: upload then rotate.
func (s *BackupService) Job(retentionDays int) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if _, err := s.CreateAndUpload(ctx); err != nil {
			return err
		}
		_, err := s.Rotate(ctx, retentionDays)
		return err
	}
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", h.Sum(nil)), nil
}

func writeMetadata(path string, metadata BackupMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(metadata)
}

func createArchive(archivePath, sourceDir string, names []string) error {
	out, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create archive file: %w", err)
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	for _, name := range names {
		if err := addFileToArchive(tw, filepath.Join(sourceDir, name), name); err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", name, err)
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func addFileToArchive(tw *tar.Writer, path, nameInArchive string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header := &tar.Header{
		Name:    nameInArchive,
		Size:    info.Size(),
		Mode:    int64(info.Mode().Perm()),
		ModTime: info.ModTime(),
	}
	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, f)
	return err
}
