package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/weeklycart/internal/model"
)

type SnapshotStore struct {
	db *sql.DB
}

func NewSnapshotStore(db *sql.DB) *SnapshotStore {
	return &SnapshotStore{db: db}
}

func scanSnapshot(scanner interface{ Scan(...any) error }) (*model.Snapshot, error) {
	var snap model.Snapshot
	var completedAt sql.NullTime
	err := scanner.Scan(
		&snap.ID, &snap.Filename, &snap.S3Key, &snap.SizeBytes,
		&snap.Status, &snap.ErrorMessage, &completedAt, &snap.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		snap.CompletedAt = &completedAt.Time
	}
	return &snap, nil
}

const snapshotCols = `id, filename, s3_key, size_bytes, status, error_message, completed_at, created_at`

func (s *SnapshotStore) Create(filename string) (*model.Snapshot, error) {
	result, err := s.db.Exec(
		`INSERT INTO snapshots (filename, status) VALUES (?, ?)`,
		filename, model.SnapshotStatusPending,
	)
	if err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *SnapshotStore) GetByID(id int64) (*model.Snapshot, error) {
	row := s.db.QueryRow(`SELECT `+snapshotCols+` FROM snapshots WHERE id = ?`, id)
	snap, err := scanSnapshot(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get snapshot: %w", err)
	}
	return snap, nil
}

func (s *SnapshotStore) List(limit int) ([]model.Snapshot, error) {
	rows, err := s.db.Query(`SELECT `+snapshotCols+` FROM snapshots ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	return snaps, rows.Err()
}

func (s *SnapshotStore) MarkUploading(id int64) error {
	return s.setStatus(id, model.SnapshotStatusUploading, "")
}

func (s *SnapshotStore) MarkCompleted(id int64, s3Key string, sizeBytes int64) error {
	_, err := s.db.Exec(
		`UPDATE snapshots SET status = ?, s3_key = ?, size_bytes = ?, completed_at = ? WHERE id = ?`,
		model.SnapshotStatusCompleted, s3Key, sizeBytes, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("mark snapshot completed: %w", err)
	}
	return nil
}

func (s *SnapshotStore) MarkFailed(id int64, message string) error {
	return s.setStatus(id, model.SnapshotStatusFailed, message)
}

func (s *SnapshotStore) setStatus(id int64, status model.SnapshotStatus, message string) error {
	_, err := s.db.Exec(
		`UPDATE snapshots SET status = ?, error_message = ? WHERE id = ?`,
		status, message, id,
	)
	if err != nil {
		return fmt.Errorf("set snapshot status: %w", err)
	}
	return nil
}

// PruneOlderThan deletes snapshot records past the retention window and
// returns the removed rows so the manager can delete the backing objects.
func (s *SnapshotStore) PruneOlderThan(cutoff time.Time) ([]model.Snapshot, error) {
	rows, err := s.db.Query(`SELECT `+snapshotCols+` FROM snapshots WHERE created_at < ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select stale snapshots: %w", err)
	}
	defer rows.Close()

	var stale []model.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		stale = append(stale, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE created_at < ?`, cutoff); err != nil {
		return nil, fmt.Errorf("prune snapshots: %w", err)
	}
	return stale, nil
}
