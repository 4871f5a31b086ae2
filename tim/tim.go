/*
Package tim implements a decoder and encoder for the TIM texture format used
by the original PlayStation.

A file starts with an 8 byte header; a 32-bit magic number followed by a
32-bit flags word. The lowest two bits of the flags select the bit depth (4, 8
or 16 bits per pixel) and bit 3 signals that a color lookup table (CLUT)
follows the header. Both the CLUT and the image data are stored as blocks with
a 12 byte sub-header; the block size, a VRAM x and y position and a width and
height. The image width is stored in 16-bit words rather than pixels, so a 4
bit image stores a quarter of its pixel width and an 8 bit image half of it.

Colors are packed as 0BBBBBGGGGGRRRRR, all integers are little-endian.
*/
package tim

import "image/color"

// Magic is the first word of every TIM file.
const Magic = 0x00000010

const (
	headerSize      = 8
	blockHeaderSize = 12

	flagDepthMask = 0x03
	flagCLUT      = 0x08

	maxUint16 = 1<<16 - 1
	maxUint32 = 1<<32 - 1
)

// Color is an 8 bits per channel RGB triple.
type Color struct {
	R, G, B uint8
}

// RGBA implements the color.Color interface.
func (c Color) RGBA() (r, g, b, a uint32) {
	return color.NRGBA{c.R, c.G, c.B, 0xff}.RGBA()
}

// Image is a decoded TIM image.
//
// For 4 and 8 bit images Pix holds one palette index per pixel, for 16 bit
// images RGB holds one color per pixel. Both are row-major.
type Image struct {
	BitDepth   int
	HasPalette bool
	Palette    []Color
	Width      int
	Height     int
	Pix        []uint8
	RGB        []Color
}

// Options changes the default, compatible, behaviour of the codec. A nil
// *Options is the same as the zero value.
type Options struct {
	// IdentityPalette synthesizes a (i, i, i) palette for indexed images
	// without a CLUT instead of the legacy concatenated ramp.
	IdentityPalette bool

	// PadRows pads every encoded row of a 4 or 8 bit image to a whole
	// number of 16-bit words, which is how rows are read back.
	PadRows bool
}

// pixelsPerWord returns how many pixels share one 16-bit storage word.
func pixelsPerWord(depth int) int {
	switch depth {
	case 4:
		return 4
	case 8:
		return 2
	case 16:
		return 1
	}
	return 0
}

func depthFlag(depth int) (uint32, bool) {
	switch depth {
	case 4:
		return 0, true
	case 8:
		return 1, true
	case 16:
		return 2, true
	}
	return 0, false
}

func wordsFor(width, ppw int) int {
	return (width + ppw - 1) / ppw
}
