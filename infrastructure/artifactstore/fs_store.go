package artifactstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/AzielCF/az-invert/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// tmpPrefix marks files being written; they are hidden from List and
// removed by Sweep if a crash leaves them behind.
const tmpPrefix = ".tmp-"

// FSStore keeps every entry as a file in a single flat directory.
type FSStore struct {
	fs    afero.Fs
	dir   string
	now   func() time.Time
	locks *keyedMutex
}

type FSOption func(*FSStore)

// WithClock overrides the clock used by Sweep.
func WithClock(now func() time.Time) FSOption {
	return func(s *FSStore) {
		s.now = now
	}
}

// NewFSStore creates dir on fs if needed.
func NewFSStore(fs afero.Fs, dir string, opts ...FSOption) (*FSStore, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory %s: %w", dir, err)
	}
	s := &FSStore{
		fs:    fs,
		dir:   dir,
		now:   time.Now,
		locks: newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// NewDiskStore is an FSStore on the operating system filesystem.
func NewDiskStore(dir string, opts ...FSOption) (*FSStore, error) {
	return NewFSStore(afero.NewOsFs(), dir, opts...)
}

func (s *FSStore) Dir() string {
	return s.dir
}

func (s *FSStore) path(name string) (string, error) {
	if !utils.IsFlatName(name) {
		return "", fmt.Errorf("%w: %q", artifact.ErrInvalidName, name)
	}
	return filepath.Join(s.dir, name), nil
}

func (s *FSStore) Stat(ctx context.Context, name string) (artifact.Entry, error) {
	p, err := s.path(name)
	if err != nil {
		return artifact.Entry{}, err
	}
	info, err := s.fs.Stat(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return artifact.Entry{}, artifact.ErrNotFound
		}
		return artifact.Entry{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if info.IsDir() {
		return artifact.Entry{}, artifact.ErrNotFound
	}
	return toEntry(info), nil
}

func (s *FSStore) Get(ctx context.Context, name string) ([]byte, artifact.Entry, error) {
	p, err := s.path(name)
	if err != nil {
		return nil, artifact.Entry{}, err
	}
	f, err := s.fs.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, artifact.Entry{}, artifact.ErrNotFound
		}
		return nil, artifact.Entry{}, fmt.Errorf("failed to open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, artifact.Entry{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if info.IsDir() {
		return nil, artifact.Entry{}, artifact.ErrNotFound
	}

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, artifact.Entry{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	return data, toEntry(info), nil
}

// Put writes to a temporary file first and renames it into place, so
// readers never observe a partially written artifact.
func (s *FSStore) Put(ctx context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	tmp := filepath.Join(s.dir, tmpPrefix+uuid.NewString())
	if err := afero.WriteFile(s.fs, tmp, data, 0644); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := s.fs.Rename(tmp, p); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", name, err)
	}
	return nil
}

func (s *FSStore) PutNew(ctx context.Context, name string, data []byte) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}

	f, err := s.fs.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return artifact.ErrExists
		}
		return fmt.Errorf("failed to create %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = s.fs.Remove(p)
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(p)
		return fmt.Errorf("failed to close %s: %w", name, err)
	}
	return nil
}

func (s *FSStore) Delete(ctx context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return artifact.ErrNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	return nil
}

// List returns the visible entries; in-flight temporary files are skipped.
func (s *FSStore) List(ctx context.Context) ([]artifact.Entry, error) {
	all, err := s.readDir()
	if err != nil {
		return nil, err
	}
	entries := all[:0]
	for _, e := range all {
		if strings.HasPrefix(e.Name, tmpPrefix) {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *FSStore) Sweep(ctx context.Context, ttl time.Duration) (artifact.SweepReport, error) {
	entries, err := s.readDir()
	if err != nil {
		return artifact.SweepReport{}, err
	}
	return sweepEntries(ctx, entries, s.now().Add(-ttl), s.Delete), nil
}

func (s *FSStore) Lock(ctx context.Context, name string) (func(), error) {
	return s.locks.lock(name), nil
}

func (s *FSStore) readDir() ([]artifact.Entry, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	entries := make([]artifact.Entry, 0, len(infos))
	for _, info := range infos {
		if info.IsDir() {
			continue
		}
		entries = append(entries, toEntry(info))
	}
	return entries, nil
}

func toEntry(info os.FileInfo) artifact.Entry {
	return artifact.Entry{
		Name:    info.Name(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

// Ping checks that the storage directory is still there.
func (s *FSStore) Ping(ctx context.Context) error {
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("storage directory %s unavailable: %w", s.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("storage path %s is not a directory", s.dir)
	}
	return nil
}
