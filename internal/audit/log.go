// Package audit implements the append-only, month-partitioned record of
// authentication attempts, bounded per-user retrieval for statistics, and
// archival of closed partitions to object storage.
package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/filex"
	"github.com/dkovalov/confidant/internal/models"
)

// Repository is the persistence contract for access attempts. Attempts are
// immutable once appended.
type Repository interface {
	// Append writes one attempt to the current partition.
	Append(ctx context.Context, attempt *models.AccessAttempt) error

	// Recent returns up to limit of the user's most recent attempts,
	// newest last.
	Recent(ctx context.Context, userID string, limit int) ([]models.AccessAttempt, error)
}

// partitionPrefix names the monthly JSONL partitions, e.g.
// "attempts-2026-08.jsonl".
const partitionPrefix = "attempts-"

// Log is the file-backed Repository: one JSONL stream per calendar month,
// opened in append mode and never rewritten. Rotation happens naturally at
// the month boundary because the partition name is derived from the
// attempt timestamp.
type Log struct {
	dir string
	mu  sync.Mutex

	// now is a test seam.
	now func() time.Time
}

// NewLog creates (if needed) the audit directory under dataDir.
func NewLog(dataDir string) (*Log, error) {
	dir, err := filex.EnsureDir(filepath.Join(dataDir, "audit"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return &Log{dir: dir, now: time.Now}, nil
}

// Append writes the attempt as one JSON line to the partition owning its
// timestamp. Prior entries are never touched.
func (l *Log) Append(ctx context.Context, attempt *models.AccessAttempt) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	path := filepath.Join(l.dir, partitionName(attempt.Timestamp))
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(attempt); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return nil
}

// Recent scans the current and previous partitions for the user's attempts
// and returns up to limit of the newest, oldest first.
func (l *Log) Recent(ctx context.Context, userID string, limit int) ([]models.AccessAttempt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now().UTC()
	// Anchor on the first of the month: AddDate on a month-end day would
	// normalize back into the current month and skip a partition.
	prev := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)

	var attempts []models.AccessAttempt
	for _, ts := range []time.Time{prev, now} {
		path := filepath.Join(l.dir, partitionName(ts))
		part, err := readPartition(path, userID)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, part...)
	}

	if limit > 0 && len(attempts) > limit {
		attempts = attempts[len(attempts)-limit:]
	}
	return attempts, nil
}

// CurrentPartition returns the file name entries are being appended to now.
func (l *Log) CurrentPartition() string {
	return partitionName(l.now())
}

// Dir returns the audit directory, used by the archiver.
func (l *Log) Dir() string {
	return l.dir
}

func readPartition(path, userID string) ([]models.AccessAttempt, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	defer f.Close()

	var attempts []models.AccessAttempt
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var a models.AccessAttempt
		if err := json.Unmarshal(scanner.Bytes(), &a); err != nil {
			// a torn trailing line from a crash is skipped, never repaired
			continue
		}
		if a.UserID == userID {
			attempts = append(attempts, a)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return attempts, nil
}

func partitionName(ts time.Time) string {
	return fmt.Sprintf("%s%s.jsonl", partitionPrefix, ts.UTC().Format("2006-01"))
}
