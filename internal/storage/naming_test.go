package storage

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNameGenerator_Monotonic(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	g := &nameGenerator{now: func() time.Time { return fixed }}

	assert.Equal(t, "1700000000000-a.zip", g.Next("a.zip"))
	assert.Equal(t, "1700000000001-a.zip", g.Next("a.zip"))
	assert.Equal(t, "1700000000002-b.zip", g.Next("b.zip"))
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"test.zip", "test.zip"},
		{"../../etc/passwd", "_.._etc_passwd"},
		{`C:\Users\me\file.zip`, "C:_Users_me_file.zip"},
		{"a\x00b\n.zip", "ab.zip"},
		{`say "hi".zip`, "say _hi_.zip"},
		{"  .hidden.zip. ", "hidden.zip"},
		{"", "unnamed"},
		{"...", "unnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFilename(tt.in))
		})
	}
}

func TestSanitizeFilename_CapsLength(t *testing.T) {
	long := strings.Repeat("é", 300) + ".zip"
	got := SanitizeFilename(long)

	assert.LessOrEqual(t, len(got), maxNameLen-20)
	assert.True(t, strings.HasSuffix(got, ".zip"))
	assert.True(t, utf8.ValidString(got))
}

func TestOriginalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1700000000000-test.zip", "test.zip"},
		{"1700000000000-my-archive.zip", "my-archive.zip"},
		{"abc-test.zip", "abc-test.zip"},
		{"-test.zip", "-test.zip"},
		{"1700000000000-", "1700000000000-"},
		{"plain.zip", "plain.zip"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, OriginalName(tt.in))
		})
	}
}

func TestValidName(t *testing.T) {
	assert.True(t, validName("1700000000000-test.zip"))
	assert.False(t, validName(""))
	assert.False(t, validName(".."))
	assert.False(t, validName("a/b"))
	assert.False(t, validName(`a\b`))
	assert.False(t, validName(".index.json"))
	assert.False(t, validName(strings.Repeat("a", 256)))
}
