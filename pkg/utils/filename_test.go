package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"My cool movie.mov", "My_cool_movie.mov"},
		{"../../../etc/passwd", "etc_passwd"},
		{"i contain cool ümläuts.txt", "i_contain_cool_umlauts.txt"},
		{"café", "cafe"},
		{"__init__", "init"},
		{"中文", ""},
		{"  spaced   out  ", "spaced_out"},
		{`C:\Users\me\photo`, "C_Users_me_photo"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, SecureFilename(tc.in), "SecureFilename(%q)", tc.in)
	}
}

func TestOriginalName(t *testing.T) {
	assert.Equal(t, "photo.png", OriginalName("photo.PNG"))
	assert.Equal(t, "upload.jpg", OriginalName("中文.jpg"))
	assert.Equal(t, "my_photo.jpeg", OriginalName("../my photo.jpeg"))
	assert.Equal(t, "upload.gif", OriginalName(".gif"))
}

func TestCollisionName(t *testing.T) {
	assert.Equal(t, "a.png", CollisionName("a.png", 0))
	assert.Equal(t, "a_1.png", CollisionName("a.png", 1))
	assert.Equal(t, "a_12.png", CollisionName("a.png", 12))
	assert.Equal(t, "noext_2", CollisionName("noext", 2))
}

func TestSplitExt(t *testing.T) {
	stem, ext := SplitExt("archive.tar.GZ")
	assert.Equal(t, "archive.tar", stem)
	assert.Equal(t, "gz", ext)

	stem, ext = SplitExt("README")
	assert.Equal(t, "README", stem)
	assert.Empty(t, ext)
}

func TestUploadURL(t *testing.T) {
	assert.Equal(t, "/uploads/a.png", UploadURL("", "a.png"))
	assert.Equal(t, "/invert/uploads/a%20b.png", UploadURL("/invert/", "a b.png"))
}

func TestIsFlatName(t *testing.T) {
	assert.True(t, IsFlatName("inverted_abc.png"))
	assert.False(t, IsFlatName(""))
	assert.False(t, IsFlatName(".."))
	assert.False(t, IsFlatName("a/b.png"))
	assert.False(t, IsFlatName(`a\b.png`))
}
