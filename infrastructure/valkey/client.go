package valkey

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	valkeylib "github.com/valkey-io/valkey-go"
)

const (
	DefaultConnectTimeout = 5 * time.Second

	lockWaitTime   = 50 * time.Millisecond
	maxLockRetries = 40
)

// releaseLockScript deletes the lock only while it still holds our token.
const releaseLockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`

var ErrLockTimeout = errors.New("lock acquisition timed out after max retries")

type Config struct {
	Address        string
	Password       string
	DB             int
	KeyPrefix      string
	ConnectTimeout time.Duration
}

// Client wraps valkey-go with key prefixing and a token based lock.
// Create it with NewClient and Close it on shutdown.
type Client struct {
	inner     valkeylib.Client
	keyPrefix string
}

// NewClient connects and pings the server, failing if it is not reachable
// within the connect timeout.
func NewClient(cfg Config) (*Client, error) {
	opts := valkeylib.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
		Password:    cfg.Password,
	}

	inner, err := valkeylib.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	timeout := cfg.ConnectTimeout
	if timeout == 0 {
		timeout = DefaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := inner.Do(ctx, inner.B().Ping().Build()).Error(); err != nil {
		inner.Close()
		return nil, fmt.Errorf("failed to ping valkey (timeout: %v): %w", timeout, err)
	}

	prefix := cfg.KeyPrefix
	if prefix != "" && !strings.HasSuffix(prefix, ":") {
		prefix += ":"
	}

	return &Client{inner: inner, keyPrefix: prefix}, nil
}

func (c *Client) Inner() valkeylib.Client {
	return c.inner
}

func (c *Client) Close() {
	if c.inner != nil {
		c.inner.Close()
	}
}

// Key joins parts with ":" under the configured prefix.
// Key("artifact", "a.png") -> "azinvert:artifact:a.png"
func (c *Client) Key(parts ...string) string {
	return c.keyPrefix + strings.Join(parts, ":")
}

func (c *Client) Ping(ctx context.Context) error {
	return c.inner.Do(ctx, c.inner.B().Ping().Build()).Error()
}

// Lock acquires key with SET NX EX, retrying with jittered waits. The
// returned release function only deletes the lock while it still carries
// this caller's token, so an expired lock re-acquired by someone else is
// left alone.
func (c *Client) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()

	for i := 0; i < maxLockRetries; i++ {
		cmd := c.inner.B().Set().Key(key).Value(token).Nx().Ex(ttl).Build()
		err := c.inner.Do(ctx, cmd).Error()
		if err == nil {
			return func() { c.release(key, token) }, nil
		}
		if !valkeylib.IsValkeyNil(err) {
			logrus.Debugf("[VALKEY] lock attempt %d failed for %s: %v", i+1, key, err)
		}

		wait := lockWaitTime + time.Duration(rand.Intn(20))*time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(wait):
		}
	}
	return nil, ErrLockTimeout
}

func (c *Client) release(key, token string) {
	// Released with a fresh context so a cancelled request does not leave
	// the lock behind until it expires.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cmd := c.inner.B().Eval().Script(releaseLockScript).Numkeys(1).Key(key).Arg(token).Build()
	if err := c.inner.Do(ctx, cmd).Error(); err != nil {
		logrus.Warnf("[VALKEY] failed to release lock %s: %v", key, err)
	}
}

// IsNil reports whether err is a Valkey NIL reply.
func IsNil(err error) bool {
	return valkeylib.IsValkeyNil(err)
}
