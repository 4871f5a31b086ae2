package timedit

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/bodgit/timedit/tim"
	"github.com/stretchr/testify/require"
)

func newTimEdit(t *testing.T) *TimEdit {
	t.Helper()

	te, err := New(filepath.Join(t.TempDir(), "test.db"), 2, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	t.Cleanup(func() {
		te.Close()
	})
	return te
}

// texture returns a small 4 bit TIM file, seed changes the pixels.
func texture(t *testing.T, seed uint8) []byte {
	t.Helper()

	m := &tim.Image{
		BitDepth:   4,
		HasPalette: true,
		Palette:    []tim.Color{{R: 0, G: 0, B: 0}, {R: 248, G: 0, B: 0}, {R: 0, G: 248, B: 0}, {R: 0, G: 0, B: 248}},
		Width:      8,
		Height:     2,
		Pix:        make([]uint8, 16),
	}
	for i := range m.Pix {
		m.Pix[i] = (uint8(i) + seed) & 3
	}

	b, err := tim.Marshal(m, nil)
	require.NoError(t, err)
	return b
}
