package artifactstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/AzielCF/az-invert/domains/artifact"
	"github.com/AzielCF/az-invert/infrastructure/valkey"
	"github.com/AzielCF/az-invert/pkg/utils"
	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	fieldData  = "data"
	fieldSize  = "size"
	fieldMtime = "mtime"

	// lockTTL bounds how long a crashed writer can block a key.
	lockTTL = 30 * time.Second
)

// putNewScript creates the entry only if the key is still free.
const putNewScript = `
if redis.call("exists", KEYS[1]) == 1 then
	return 0
end
redis.call("hset", KEYS[1], "data", ARGV[1], "size", ARGV[2], "mtime", ARGV[3])
return 1
`

// ValkeyStore keeps every entry as a hash (data, size, mtime) under a
// shared key prefix, so several service instances can share one cache.
type ValkeyStore struct {
	client     *valkey.Client
	prefix     string
	lockPrefix string
	now        func() time.Time
}

func NewValkeyStore(client *valkey.Client) *ValkeyStore {
	return &ValkeyStore{
		client:     client,
		prefix:     client.Key("artifact") + ":",
		lockPrefix: client.Key("artifact-lock") + ":",
		now:        time.Now,
	}
}

func (s *ValkeyStore) inner() valkeylib.Client {
	return s.client.Inner()
}

func (s *ValkeyStore) key(name string) (string, error) {
	if !utils.IsFlatName(name) {
		return "", fmt.Errorf("%w: %q", artifact.ErrInvalidName, name)
	}
	return s.prefix + name, nil
}

func (s *ValkeyStore) Stat(ctx context.Context, name string) (artifact.Entry, error) {
	key, err := s.key(name)
	if err != nil {
		return artifact.Entry{}, err
	}
	return s.statKey(ctx, key, name)
}

func (s *ValkeyStore) statKey(ctx context.Context, key, name string) (artifact.Entry, error) {
	cmd := s.inner().B().Hmget().Key(key).Field(fieldSize, fieldMtime).Build()
	values, err := s.inner().Do(ctx, cmd).AsStrSlice()
	if err != nil {
		if valkey.IsNil(err) {
			return artifact.Entry{}, artifact.ErrNotFound
		}
		return artifact.Entry{}, fmt.Errorf("failed to stat %s: %w", name, err)
	}
	if len(values) != 2 || values[1] == "" {
		return artifact.Entry{}, artifact.ErrNotFound
	}
	return parseEntry(name, values[0], values[1])
}

func (s *ValkeyStore) Get(ctx context.Context, name string) ([]byte, artifact.Entry, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, artifact.Entry{}, err
	}

	fields, err := s.inner().Do(ctx, s.inner().B().Hgetall().Key(key).Build()).AsStrMap()
	if err != nil {
		return nil, artifact.Entry{}, fmt.Errorf("failed to get %s: %w", name, err)
	}
	data, ok := fields[fieldData]
	if !ok {
		return nil, artifact.Entry{}, artifact.ErrNotFound
	}

	entry, err := parseEntry(name, fields[fieldSize], fields[fieldMtime])
	if err != nil {
		return nil, artifact.Entry{}, err
	}
	return []byte(data), entry, nil
}

func (s *ValkeyStore) Put(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}

	cmd := s.inner().B().Hset().Key(key).FieldValue().
		FieldValue(fieldData, string(data)).
		FieldValue(fieldSize, strconv.Itoa(len(data))).
		FieldValue(fieldMtime, strconv.FormatInt(s.now().UnixNano(), 10)).
		Build()
	if err := s.inner().Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to put %s: %w", name, err)
	}
	return nil
}

func (s *ValkeyStore) PutNew(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}

	cmd := s.inner().B().Eval().Script(putNewScript).Numkeys(1).Key(key).
		Arg(string(data), strconv.Itoa(len(data)), strconv.FormatInt(s.now().UnixNano(), 10)).
		Build()
	created, err := s.inner().Do(ctx, cmd).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	if created == 0 {
		return artifact.ErrExists
	}
	return nil
}

func (s *ValkeyStore) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	removed, err := s.inner().Do(ctx, s.inner().B().Del().Key(key).Build()).AsInt64()
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	if removed == 0 {
		return artifact.ErrNotFound
	}
	return nil
}

// List walks the prefix with SCAN so large caches do not block the server.
func (s *ValkeyStore) List(ctx context.Context) ([]artifact.Entry, error) {
	var (
		entries []artifact.Entry
		cursor  uint64
	)
	for {
		cmd := s.inner().B().Scan().Cursor(cursor).Match(s.prefix + "*").Count(100).Build()
		result, err := s.inner().Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return nil, fmt.Errorf("failed to scan artifacts: %w", err)
		}

		for _, key := range result.Elements {
			name := key[len(s.prefix):]
			entry, err := s.statKey(ctx, key, name)
			if err != nil {
				// Deleted between SCAN and HMGET.
				continue
			}
			entries = append(entries, entry)
		}

		cursor = result.Cursor
		if cursor == 0 {
			break
		}
	}
	return entries, nil
}

func (s *ValkeyStore) Sweep(ctx context.Context, ttl time.Duration) (artifact.SweepReport, error) {
	ctx = context.WithoutCancel(ctx)
	entries, err := s.List(ctx)
	if err != nil {
		return artifact.SweepReport{}, err
	}
	return sweepEntries(ctx, entries, s.now().Add(-ttl), s.Delete), nil
}

func (s *ValkeyStore) Lock(ctx context.Context, name string) (func(), error) {
	return s.client.Lock(ctx, s.lockPrefix+name, lockTTL)
}

func parseEntry(name, size, mtime string) (artifact.Entry, error) {
	n, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("corrupt size for %s: %w", name, err)
	}
	ns, err := strconv.ParseInt(mtime, 10, 64)
	if err != nil {
		return artifact.Entry{}, fmt.Errorf("corrupt mtime for %s: %w", name, err)
	}
	return artifact.Entry{Name: name, Size: n, ModTime: time.Unix(0, ns)}, nil
}

func (s *ValkeyStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}
