package reliability

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/aristath/portwatch/internal/database"
	"github.com/rs/zerolog"
)

const (
	backupPrefix     = "portwatch-backup-"
	backupSuffix     = ".db"
	backupTimeLayout = "2006-01-02-150405"
)

// Uploader ships a finished snapshot to remote storage
type Uploader interface {
	Upload(ctx context.Context, key string, body io.Reader) error
}

// BackupInfo describes a local snapshot
type BackupInfo struct {
	Filename  string    `json:"filename"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
	SizeBytes int64     `json:"size_bytes"`
	Checksum  string    `json:"checksum,omitempty"`
	Uploaded  bool      `json:"uploaded"`
}

// BackupService snapshots the database with VACUUM INTO and keeps the newest N copies
type BackupService struct {
	db        *database.DB
	backupDir string
	retention int
	uploader  Uploader
	now       func() time.Time
	log       zerolog.Logger
}

// NewBackupService creates a backup service. uploader is optional.
// A retention below 1 keeps every snapshot.
func NewBackupService(db *database.DB, backupDir string, retention int, uploader Uploader, log zerolog.Logger) *BackupService {
	return &BackupService{
		db:        db,
		backupDir: backupDir,
		retention: retention,
		uploader:  uploader,
		now:       time.Now,
		log:       log.With().Str("service", "backup").Logger(),
	}
}

// CreateBackup writes a consistent snapshot, uploads it when an uploader is configured,
// then rotates old local snapshots. A failed upload keeps the local snapshot and returns the error.
func (s *BackupService) CreateBackup(ctx context.Context) (*BackupInfo, error) {
	startTime := s.now()
	if err := os.MkdirAll(s.backupDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := startTime.UTC()
	filename := backupPrefix + timestamp.Format(backupTimeLayout) + backupSuffix
	path := filepath.Join(s.backupDir, filename)

	// VACUUM INTO refuses to overwrite
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("backup %s already exists", filename)
	}

	if _, err := s.db.Conn().ExecContext(ctx, "VACUUM INTO ?", path); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}
	checksum, err := calculateChecksum(path)
	if err != nil {
		return nil, fmt.Errorf("failed to checksum backup: %w", err)
	}

	info := &BackupInfo{
		Filename:  filename,
		Path:      path,
		Timestamp: timestamp.Truncate(time.Second),
		SizeBytes: stat.Size(),
		Checksum:  checksum,
	}

	if s.uploader != nil {
		if err := s.upload(ctx, info); err != nil {
			return info, err
		}
		info.Uploaded = true
	}

	if err := s.Rotate(); err != nil {
		s.log.Warn().Err(err).Msg("Backup rotation failed")
	}

	s.log.Info().
		Str("file", filename).
		Int64("size_bytes", info.SizeBytes).
		Bool("uploaded", info.Uploaded).
		Dur("duration_ms", s.now().Sub(startTime)).
		Msg("Backup completed")
	return info, nil
}

func (s *BackupService) upload(ctx context.Context, info *BackupInfo) error {
	f, err := os.Open(info.Path)
	if err != nil {
		return fmt.Errorf("failed to open backup for upload: %w", err)
	}
	defer f.Close()

	if err := s.uploader.Upload(ctx, info.Filename, f); err != nil {
		return fmt.Errorf("failed to upload backup %s: %w", info.Filename, err)
	}
	return nil
}

// ListBackups returns local snapshots, newest first
func (s *BackupService) ListBackups() ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if os.IsNotExist(err) {
		return []BackupInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, backupPrefix) || !strings.HasSuffix(name, backupSuffix) {
			continue
		}
		ts, err := time.Parse(backupTimeLayout, strings.TrimSuffix(strings.TrimPrefix(name, backupPrefix), backupSuffix))
		if err != nil {
			s.log.Warn().Str("filename", name).Msg("Failed to parse timestamp from backup filename")
			continue
		}
		var size int64
		if fi, err := entry.Info(); err == nil {
			size = fi.Size()
		}
		backups = append(backups, BackupInfo{
			Filename:  name,
			Path:      filepath.Join(s.backupDir, name),
			Timestamp: ts,
			SizeBytes: size,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].Timestamp.After(backups[j].Timestamp)
	})
	return backups, nil
}

// Rotate deletes local snapshots beyond the retention count
func (s *BackupService) Rotate() error {
	if s.retention < 1 {
		return nil
	}
	backups, err := s.ListBackups()
	if err != nil {
		return err
	}
	for _, b := range backups[min(s.retention, len(backups)):] {
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("failed to delete old backup %s: %w", b.Filename, err)
		}
		s.log.Info().Str("filename", b.Filename).Msg("Deleted old backup")
	}
	return nil
}

// calculateChecksum calculates SHA256 checksum of a file
func calculateChecksum(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return fmt.Sprintf("sha256:%x", hash.Sum(nil)), nil
}

// BackupJob runs CreateBackup on a schedule
type BackupJob struct {
	service *BackupService
}

// NewBackupJob creates a scheduled backup job
func NewBackupJob(service *BackupService) *BackupJob {
	return &BackupJob{service: service}
}

// Run takes one snapshot
func (j *BackupJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	_, err := j.service.CreateBackup(ctx)
	return err
}

// Name returns the job name for scheduler
func (j *BackupJob) Name() string {
	return "database_backup"
}
