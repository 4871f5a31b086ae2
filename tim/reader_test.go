package tim

import (
	"bytes"
	"encoding/binary"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build assembles a TIM file by hand, clut is omitted when nil.
func build(flags uint32, clut []uint16, w, h uint16, pix []byte) []byte {
	b := new(bytes.Buffer)
	binary.Write(b, binary.LittleEndian, uint32(Magic))
	binary.Write(b, binary.LittleEndian, flags)
	if clut != nil {
		binary.Write(b, binary.LittleEndian, uint32(12+len(clut)*2))
		binary.Write(b, binary.LittleEndian, []uint16{0, 0, uint16(len(clut)), 1})
		binary.Write(b, binary.LittleEndian, clut)
	}
	binary.Write(b, binary.LittleEndian, uint32(12+len(pix)))
	binary.Write(b, binary.LittleEndian, []uint16{0, 0, w, h})
	b.Write(pix)
	return b.Bytes()
}

var scenarioA = []byte{
	0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
	0x0e, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
	0x05, 0x07,
}

func TestUnmarshal8Bit(t *testing.T) {
	m, err := Unmarshal(scenarioA, nil)
	require.NoError(t, err)

	assert.Equal(t, 8, m.BitDepth)
	assert.False(t, m.HasPalette)
	assert.Equal(t, 2, m.Width)
	assert.Equal(t, 1, m.Height)
	assert.Equal(t, []uint8{5, 7}, m.Pix)
	assert.Nil(t, m.RGB)
	assert.Equal(t, DefaultPalette(8), m.Palette)
}

func TestUnmarshalIdentityPalette(t *testing.T) {
	m, err := Unmarshal(scenarioA, &Options{IdentityPalette: true})
	require.NoError(t, err)
	assert.Equal(t, IdentityPalette(8), m.Palette)
}

func TestUnmarshal4BitDefaultPalette(t *testing.T) {
	m, err := Unmarshal(build(0x00, nil, 1, 1, []byte{0x21, 0x43}), nil)
	require.NoError(t, err)

	assert.Equal(t, 4, m.BitDepth)
	assert.Equal(t, 4, m.Width)
	assert.Equal(t, []uint8{1, 2, 3, 4}, m.Pix)
	require.Len(t, m.Palette, 16)
	for i, c := range m.Palette {
		assert.Equal(t, Color{uint8(3 * i % 16), uint8((3*i + 1) % 16), uint8((3*i + 2) % 16)}, c)
	}
}

func TestUnmarshalEmptyCLUT(t *testing.T) {
	m, err := Unmarshal(build(0x08, []uint16{}, 1, 1, []byte{0x21, 0x43}), nil)
	require.NoError(t, err)
	assert.True(t, m.HasPalette)
	assert.Equal(t, DefaultPalette(4), m.Palette)
}

func TestUnmarshal4BitCLUT(t *testing.T) {
	m, err := Unmarshal(build(0x08, []uint16{0x001f, 0x03e0}, 1, 2, []byte{0x10, 0x00, 0x01, 0x00}), nil)
	require.NoError(t, err)

	assert.True(t, m.HasPalette)
	assert.Equal(t, []Color{{248, 0, 0}, {0, 248, 0}}, m.Palette)
	assert.Equal(t, 4, m.Width)
	assert.Equal(t, 2, m.Height)
	assert.Equal(t, []uint8{0, 1, 0, 0, 1, 0, 0, 0}, m.Pix)
}

func TestUnmarshal16Bit(t *testing.T) {
	m, err := Unmarshal(build(0x02, nil, 2, 1, []byte{0x1f, 0x00, 0x00, 0x7c}), nil)
	require.NoError(t, err)

	assert.Equal(t, 16, m.BitDepth)
	assert.Equal(t, 2, m.Width)
	assert.Nil(t, m.Palette)
	assert.Nil(t, m.Pix)
	assert.Equal(t, []Color{{255, 0, 0}, {0, 0, 255}}, m.RGB)
}

func TestUnmarshal16BitCLUT(t *testing.T) {
	m, err := Unmarshal(build(0x0a, []uint16{0x7fff}, 1, 1, []byte{0xff, 0x7f}), nil)
	require.NoError(t, err)

	assert.True(t, m.HasPalette)
	assert.Equal(t, []Color{{248, 248, 248}}, m.Palette)
	assert.Equal(t, []Color{{255, 255, 255}}, m.RGB)
}

func TestUnmarshalShortPixels(t *testing.T) {
	// 2x2 declared, only one and a half pixels present
	m, err := Unmarshal(build(0x02, nil, 2, 2, []byte{0xe0, 0x03, 0x1f}), nil)
	require.NoError(t, err)
	assert.Equal(t, []Color{{0, 255, 0}, {}, {}, {}}, m.RGB)
}

func TestUnmarshalTrailingData(t *testing.T) {
	b := append(append([]byte(nil), scenarioA...), 0xde, 0xad, 0xbe, 0xef)
	m, err := Unmarshal(b, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{5, 7}, m.Pix)
}

func TestUnmarshalErrors(t *testing.T) {
	tables := []struct {
		name string
		b    []byte
		err  error
	}{
		{"empty", nil, ErrFileTooSmall},
		{"seven bytes", scenarioA[:7], ErrFileTooSmall},
		{"magic", append([]byte{0x11}, scenarioA[1:]...), ErrBadMagic},
		{"bpp flag", build(0x03, nil, 1, 1, []byte{0, 0}), ErrUnsupportedBppFlag},
		{"bpp flag with clut", build(0x0b, []uint16{0}, 1, 1, []byte{0, 0}), ErrUnsupportedBppFlag},
		{"no image block", scenarioA[:8], ErrTruncatedImageBlock},
		{"clut missing", build(0x08, nil, 1, 1, nil)[:10], ErrTruncatedPaletteBlock},
		{"clut overrun", build(0x08, []uint16{1, 2, 3}, 1, 1, nil)[:20], ErrTruncatedPaletteBlock},
		{"image header", scenarioA[:16], ErrTruncatedImageBlock},
		{"image overrun", scenarioA[:21], ErrTruncatedImageBlock},
		{"image undersized", []byte{
			0x10, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00,
			0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00,
		}, ErrBlockSize},
		{"clut undersized", []byte{
			0x10, 0x00, 0x00, 0x00, 0x08, 0x00, 0x00, 0x00,
			0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00,
		}, ErrBlockSize},
	}

	for _, table := range tables {
		t.Run(table.name, func(t *testing.T) {
			_, err := Unmarshal(table.b, nil)
			assert.ErrorIs(t, err, table.err)
		})
	}
}

func TestReadHeader(t *testing.T) {
	b := build(0x08, []uint16{0x001f, 0x03e0}, 3, 5, make([]byte, 30))
	h, err := ReadHeader(append(b, 0, 0, 0))
	require.NoError(t, err)

	assert.Equal(t, Header{
		BitDepth:    4,
		HasPalette:  true,
		PaletteSize: 16,
		Colors:      2,
		ImageSize:   42,
		WordWidth:   3,
		Width:       12,
		Height:      5,
		Size:        len(b),
	}, h)
}

func TestUnmarshalBinary(t *testing.T) {
	var m Image
	require.NoError(t, m.UnmarshalBinary(scenarioA))
	assert.Equal(t, []uint8{5, 7}, m.Pix)

	assert.Error(t, m.UnmarshalBinary([]byte{0}))
}

func TestImageDecode(t *testing.T) {
	m, format, err := image.Decode(bytes.NewReader(scenarioA))
	require.NoError(t, err)
	assert.Equal(t, "tim", format)

	pm, ok := m.(*image.Paletted)
	require.True(t, ok)
	assert.Equal(t, image.Rect(0, 0, 2, 1), pm.Bounds())
	assert.Equal(t, uint8(5), pm.ColorIndexAt(0, 0))
	assert.Equal(t, uint8(7), pm.ColorIndexAt(1, 0))
	assert.Len(t, pm.Palette, 256)
}

func TestImageDecodeConfig(t *testing.T) {
	c, format, err := image.DecodeConfig(bytes.NewReader(build(0x02, nil, 7, 3, nil)))
	require.NoError(t, err)
	assert.Equal(t, "tim", format)
	assert.Equal(t, 7, c.Width)
	assert.Equal(t, 3, c.Height)
	assert.Equal(t, Model, c.ColorModel)

	c, _, err = image.DecodeConfig(bytes.NewReader(build(0x08, []uint16{0x001f}, 1, 1, nil)))
	require.NoError(t, err)
	assert.Equal(t, 4, c.Width)
	assert.Len(t, c.ColorModel, 16)
}
