package generators

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/gophdiary/internal/common"
	"github.com/dmitrijs2005/gophdiary/internal/filex"
)

// FileVideoSynthesizer writes an empty placeholder video into dir and
// returns its path relative to the working directory.
type FileVideoSynthesizer struct {
	dir string
	now func() time.Time
}

func NewFileVideoSynthesizer(dir string) *FileVideoSynthesizer {
	return &FileVideoSynthesizer{dir: dir, now: time.Now}
}

func (s *FileVideoSynthesizer) Synthesize(ctx context.Context, summary string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if _, err := filex.EnsureDir(s.dir); err != nil {
		return "", fmt.Errorf("video dir: %w", err)
	}

	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d-%s.mp4", s.now().UnixMilli(), suffix)
	path := filepath.Join(s.dir, name)

	if err := filex.TouchFile(path); err != nil {
		return "", fmt.Errorf("write video: %w", err)
	}
	return filepath.ToSlash(path), nil
}
