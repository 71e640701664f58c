package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToMD5(t *testing.T) {
	h, err := New("")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmMD5, h.Name())

	// RFC 1321 test vector.
	assert.Equal(t, "900150983cd24fb0d6963f7d28e17f72", h.Sum([]byte("abc")))
}

func TestNew_Unsupported(t *testing.T) {
	_, err := New("sha1")
	assert.Error(t, err)
}

func TestHashers_FixedLengthAndDeterministic(t *testing.T) {
	for _, name := range []string{AlgorithmMD5, AlgorithmMurmur3} {
		t.Run(name, func(t *testing.T) {
			h, err := New(name)
			require.NoError(t, err)

			a := h.Sum([]byte("same bytes"))
			b := h.Sum([]byte("same bytes"))
			c := h.Sum([]byte("other bytes"))

			assert.Len(t, a, 32)
			assert.Equal(t, a, b)
			assert.NotEqual(t, a, c)
		})
	}
}

func TestNew_CaseInsensitive(t *testing.T) {
	h, err := New(" Murmur3 ")
	require.NoError(t, err)
	assert.Equal(t, AlgorithmMurmur3, h.Name())
}
