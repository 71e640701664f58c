package artifact

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound    = errors.New("artifact not found")
	ErrExists      = errors.New("artifact already exists")
	ErrInvalidName = errors.New("invalid artifact name")
)

// Entry describes one stored file. ModTime is the last write time and is
// what retention is measured against.
type Entry struct {
	Name    string    `json:"name"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time"`
}

// SweepReport summarizes one retention sweep.
type SweepReport struct {
	Scanned int `json:"scanned"`
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Store is a flat namespace holding both uploaded originals and derived
// artifacts. Names are single path elements.
type Store interface {
	// Stat returns ErrNotFound when name does not exist.
	Stat(ctx context.Context, name string) (Entry, error)
	Get(ctx context.Context, name string) ([]byte, Entry, error)
	// Put creates or overwrites name.
	Put(ctx context.Context, name string, data []byte) error
	// PutNew creates name and fails with ErrExists if it is already taken.
	PutNew(ctx context.Context, name string, data []byte) error
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Entry, error)
	// Sweep deletes every entry last modified more than ttl ago. Failing
	// deletions are counted in the report and never stop the sweep.
	Sweep(ctx context.Context, ttl time.Duration) (SweepReport, error)
}

// Locker is implemented by stores that can serialize writers of one key.
// The returned unlock function must always be called.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
