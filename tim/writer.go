package tim

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	// ErrNoImageToEncode is returned when there are no pixels to encode.
	ErrNoImageToEncode = errors.New("tim: no image to encode")
	// ErrUnsupportedBitDepth is returned for a bit depth other than 4, 8
	// or 16.
	ErrUnsupportedBitDepth = errors.New("tim: unsupported bit depth")
	// ErrPixelCount is returned when the pixel buffer does not match the
	// image dimensions.
	ErrPixelCount = errors.New("tim: pixel count does not match dimensions")
	// ErrTooLarge is returned when a field would overflow its storage or a
	// palette has more colors than the bit depth can index.
	ErrTooLarge = errors.New("tim: image too large")
)

// Marshal encodes m as a TIM file.
//
// Indexed pixels are packed over the whole image without padding rows to a
// word boundary, while decoding always reads whole words per row. Unless
// opts.PadRows is set, a 4 bit image whose width is not a multiple of 4, or
// an 8 bit image whose width is odd, will not read back the same.
func Marshal(m *Image, opts *Options) ([]byte, error) {
	var o Options
	if opts != nil {
		o = *opts
	}

	flags, ok := depthFlag(m.BitDepth)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, m.BitDepth)
	}

	n := m.Width * m.Height
	var pixels []byte
	switch m.BitDepth {
	case 16:
		if len(m.RGB) == 0 {
			return nil, ErrNoImageToEncode
		}
		if len(m.RGB) != n {
			return nil, fmt.Errorf("%w: %d != %dx%d", ErrPixelCount, len(m.RGB), m.Width, m.Height)
		}
		pixels = encodeDirect(m.RGB)
	default:
		if len(m.Pix) == 0 {
			return nil, ErrNoImageToEncode
		}
		if len(m.Pix) != n {
			return nil, fmt.Errorf("%w: %d != %dx%d", ErrPixelCount, len(m.Pix), m.Width, m.Height)
		}
		if colors := 1 << uint(m.BitDepth); len(m.Palette) > colors {
			return nil, fmt.Errorf("%w: %d colors for %d bits", ErrTooLarge, len(m.Palette), m.BitDepth)
		}
		switch {
		case o.PadRows:
			pixels = encodeIndexedRows(m.Pix, m.BitDepth, m.Width, m.Height)
		case m.BitDepth == 4:
			pixels = encode4(m.Pix)
		default:
			pixels = encode8(m.Pix)
		}
	}

	words := wordsFor(m.Width, pixelsPerWord(m.BitDepth))
	switch {
	case words > maxUint16, m.Height > maxUint16, len(m.Palette) > maxUint16:
		return nil, ErrTooLarge
	case uint64(blockHeaderSize+len(pixels)) > maxUint32:
		return nil, ErrTooLarge
	}

	size := headerSize + blockHeaderSize + len(pixels)
	if m.HasPalette {
		flags |= flagCLUT
		size += blockHeaderSize + len(m.Palette)*2
	}

	b := make([]byte, headerSize, size)
	binary.LittleEndian.PutUint32(b[0:], Magic)
	binary.LittleEndian.PutUint32(b[4:], flags)

	if m.HasPalette {
		b = appendPalette(b, m.Palette)
	}

	b = appendBlock(b, block{
		size: uint32(blockHeaderSize + len(pixels)),
		w:    uint16(words),
		h:    uint16(m.Height),
	})
	b = append(b, pixels...)

	return b, nil
}

// MarshalBinary encodes m using the default options.
func (m *Image) MarshalBinary() ([]byte, error) {
	return Marshal(m, nil)
}
