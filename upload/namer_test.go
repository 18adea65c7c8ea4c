package upload

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDNamer(t *testing.T) {
	tests := []struct {
		original string
		ext      string
	}{
		{"photo.png", ".png"},
		{"PHOTO.JPG", ".jpg"},
		{"../../x.WebP", ".webp"},
		{"noext", ""},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			name := UUIDNamer{}.NameFor(tt.original)
			require.True(t, strings.HasSuffix(name, tt.ext), name)

			id, err := uuid.Parse(strings.TrimSuffix(name, tt.ext))
			require.NoError(t, err)
			assert.Equal(t, uuid.Version(4), id.Version())
		})
	}
}

func TestUUIDNamerUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		name := UUIDNamer{}.NameFor("a.png")
		require.False(t, seen[name], "duplicate name %s", name)
		seen[name] = true
	}
}

func TestNamerFunc(t *testing.T) {
	n := NamerFunc(func(string) string { return "fixed.png" })
	assert.Equal(t, "fixed.png", n.NameFor("anything.jpg"))
}
