package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "foto tablero.JPG", want: "foto_tablero.JPG"},
		{in: "../../etc/passwd", want: "passwd"},
		{in: `C:\fotos\evidencia.png`, want: "evidencia.png"},
		{in: ".hidden", want: "hidden"},
		{in: "informe(final)#1.pdf", want: "informefinal1.pdf"},
		{in: "", want: "file"},
		{in: "ñ", want: "file"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}

	long := SanitizeFilename(strings.Repeat("a", 300) + ".pdf")
	assert.Len(t, long, maxFileNameLength)
	assert.True(t, strings.HasSuffix(long, ".pdf"))
}

func TestStorageKey(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	key := StorageKey("/evidencias/12/", "mi foto.png", now)
	assert.True(t, strings.HasPrefix(key, "evidencias/12/2026/03/"), key)
	assert.True(t, strings.HasSuffix(key, "_mi_foto.png"), key)
	assert.Equal(t, ".png", FileExt(key))
}
