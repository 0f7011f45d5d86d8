package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dkovalov/confidant/internal/common"
	"github.com/dkovalov/confidant/internal/filex"
	"github.com/dkovalov/confidant/internal/models"
)

// FileRepository stores one JSON profile file per user under its directory.
// All writes go through a temp file plus rename, so a crash never leaves a
// partially written profile as the current one.
type FileRepository struct {
	dir string
}

// NewFileRepository creates (if needed) the profile directory under dataDir.
func NewFileRepository(dataDir string) (*FileRepository, error) {
	dir, err := filex.EnsureDir(filepath.Join(dataDir, "profiles"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return &FileRepository{dir: dir}, nil
}

func (r *FileRepository) Create(ctx context.Context, p *models.SecurityProfile) error {
	path := r.path(p.UserID)
	// O_EXCL makes concurrent creates race-safe at the filesystem level.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return common.ErrProfileExists
		}
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	f.Close()

	if err := r.Save(ctx, p); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

func (r *FileRepository) Get(ctx context.Context, userID string) (*models.SecurityProfile, error) {
	data, err := os.ReadFile(r.path(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, common.ErrProfileNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	p := &models.SecurityProfile{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: corrupt profile file: %v", common.ErrStorageIO, err)
	}
	return p, nil
}

func (r *FileRepository) Save(ctx context.Context, p *models.SecurityProfile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	if err := filex.AtomicWrite(r.path(p.UserID), data, 0o600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorageIO, err)
	}
	return nil
}

func (r *FileRepository) path(userID string) string {
	return filepath.Join(r.dir, userID+".json")
}
