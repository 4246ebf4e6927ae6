// Package snapshot writes periodic encrypted backups of the full list
// collection, locally and optionally to S3-compatible storage.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/weeklycart/internal/export"
	"github.com/dukerupert/weeklycart/internal/model"
	"github.com/dukerupert/weeklycart/internal/store"
)

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Config holds snapshot manager configuration.
type Config struct {
	Dir           string // local snapshot directory; empty disables snapshots
	Passphrase    string // encryption passphrase; empty disables snapshots
	ScheduleHour  int    // hour of day (UTC) for the scheduled snapshot
	RetentionDays int
	S3            S3Config
}

// Manager runs scheduled and on-demand snapshots of the list collection.
type Manager struct {
	mu     sync.RWMutex
	cfg    Config
	lists  *store.ListStore
	snaps  *store.SnapshotStore
	client s3Client
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewManager creates a snapshot manager. It is inert when no directory or
// passphrase is configured.
func NewManager(cfg Config, lists *store.ListStore, snaps *store.SnapshotStore, logger *slog.Logger) *Manager {
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	m := &Manager{
		cfg:    cfg,
		lists:  lists,
		snaps:  snaps,
		logger: logger,
	}
	if cfg.S3.Bucket != "" && cfg.S3.AccessKey != "" && cfg.S3.SecretKey != "" {
		m.client = newS3Client(cfg.S3)
	}
	return m
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// Enabled reports whether snapshots are configured.
func (m *Manager) Enabled() bool {
	return m.cfg.Dir != "" && m.cfg.Passphrase != ""
}

// Start begins the scheduled snapshot loop. No-op when not configured.
func (m *Manager) Start(ctx context.Context) {
	if !m.Enabled() {
		return
	}

	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(1 * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.checkSchedule(ctx)
			}
		}
	}()
}

// Stop gracefully stops the snapshot loop.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel := m.cancel
	done := m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) checkSchedule(ctx context.Context) {
	now := time.Now().UTC()
	if now.Hour() != m.cfg.ScheduleHour || now.Minute() != 0 {
		return
	}

	if _, err := m.RunNow(ctx); err != nil {
		m.logger.Error("scheduled snapshot failed", "error", err)
	}
	if err := m.prune(ctx); err != nil {
		m.logger.Error("snapshot prune failed", "error", err)
	}
}

// RunNow takes a snapshot immediately: the full collection is rendered as an
// export envelope, encrypted, written to the snapshot directory and, when S3
// is configured, uploaded.
func (m *Manager) RunNow(ctx context.Context) (*model.Snapshot, error) {
	if !m.Enabled() {
		return nil, fmt.Errorf("snapshots not configured")
	}

	timestamp := time.Now().UTC().Format("2006-01-02T150405Z")
	filename := fmt.Sprintf("snapshot-%s.json.enc", timestamp)

	record, err := m.snaps.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("create snapshot record: %w", err)
	}

	fail := func(stage string, err error) (*model.Snapshot, error) {
		m.snaps.MarkFailed(record.ID, err.Error())
		return nil, fmt.Errorf("%s: %w", stage, err)
	}

	env := model.NewMultiEnvelope(m.lists.Lists(), time.Now())
	plaintext, err := export.JSON(env)
	if err != nil {
		return fail("render snapshot", err)
	}

	salt, err := GenerateSalt()
	if err != nil {
		return fail("salt", err)
	}
	encrypted, err := Encrypt(plaintext, m.cfg.Passphrase, salt)
	if err != nil {
		return fail("encrypt snapshot", err)
	}

	if err := os.MkdirAll(m.cfg.Dir, 0700); err != nil {
		return fail("snapshot dir", err)
	}
	path := filepath.Join(m.cfg.Dir, filename)
	if err := os.WriteFile(path, encrypted, 0600); err != nil {
		return fail("write snapshot", err)
	}

	s3Key := ""
	if m.client != nil {
		if err := m.snaps.MarkUploading(record.ID); err != nil {
			m.logger.Error("mark snapshot uploading", "error", err)
		}
		s3Key = "snapshots/" + filename
		_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(m.cfg.S3.Bucket),
			Key:    aws.String(s3Key),
			Body:   strings.NewReader(string(encrypted)),
		})
		if err != nil {
			return fail("upload snapshot", err)
		}
	}

	if err := m.snaps.MarkCompleted(record.ID, s3Key, int64(len(encrypted))); err != nil {
		return nil, fmt.Errorf("mark snapshot completed: %w", err)
	}
	m.logger.Info("snapshot written", "file", filename, "bytes", len(encrypted), "uploaded", s3Key != "")
	return m.snaps.GetByID(record.ID)
}

// Restore decrypts a snapshot file and returns the envelope JSON it holds.
func (m *Manager) Restore(filename string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(m.cfg.Dir, filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return Decrypt(data, m.cfg.Passphrase)
}

// prune removes snapshots past the retention window, both the records and
// the backing files/objects.
func (m *Manager) prune(ctx context.Context) error {
	cutoff := time.Now().UTC().AddDate(0, 0, -m.cfg.RetentionDays)
	stale, err := m.snaps.PruneOlderThan(cutoff)
	if err != nil {
		return err
	}

	for _, snap := range stale {
		if err := os.Remove(filepath.Join(m.cfg.Dir, snap.Filename)); err != nil && !os.IsNotExist(err) {
			m.logger.Error("remove stale snapshot file", "file", snap.Filename, "error", err)
		}
		if m.client != nil && snap.S3Key != "" {
			_, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(m.cfg.S3.Bucket),
				Key:    aws.String(snap.S3Key),
			})
			if err != nil {
				m.logger.Error("delete stale snapshot object", "key", snap.S3Key, "error", err)
			}
		}
	}
	return nil
}
