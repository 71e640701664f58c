// Package hash computes the content digests used as artifact cache keys.
// The digests are cache keys only and carry no integrity guarantee.
package hash

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spaolacci/murmur3"
)

const (
	AlgorithmMD5     = "md5"
	AlgorithmMurmur3 = "murmur3"
)

// Hasher turns raw bytes into a fixed-length lowercase hex digest.
type Hasher interface {
	Sum(data []byte) string
	Name() string
}

// New returns the hasher registered under name. An empty name selects MD5.
func New(name string) (Hasher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", AlgorithmMD5:
		return md5Hasher{}, nil
	case AlgorithmMurmur3:
		return murmur3Hasher{}, nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm %q (supported: %s, %s)", name, AlgorithmMD5, AlgorithmMurmur3)
	}
}

type md5Hasher struct{}

func (md5Hasher) Sum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

func (md5Hasher) Name() string { return AlgorithmMD5 }

// murmur3Hasher yields a 128-bit digest like MD5 but is considerably
// cheaper on large uploads.
type murmur3Hasher struct{}

func (murmur3Hasher) Sum(data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	buf := make([]byte, 16)
	binary.BigEndian.PutUint64(buf[:8], h1)
	binary.BigEndian.PutUint64(buf[8:], h2)
	return hex.EncodeToString(buf)
}

func (murmur3Hasher) Name() string { return AlgorithmMurmur3 }
