package tim

const channelMask = 0x1f

// Palette entries and direct color pixels expand 5-bit channels differently.
// Palette entries only shift, so 31 becomes 248, whereas direct pixels
// replicate the top bits into the bottom so 31 becomes 255.

func expandPaletteChannel(c uint16) uint8 {
	return uint8(c&channelMask) << 3
}

func expandDirectChannel(c uint16) uint8 {
	c &= channelMask
	return uint8(c<<3 | c>>2)
}

// DecodePaletteWord converts a CLUT color word to RGB.
func DecodePaletteWord(w uint16) Color {
	return Color{
		expandPaletteChannel(w),
		expandPaletteChannel(w >> 5),
		expandPaletteChannel(w >> 10),
	}
}

// DecodeDirectWord converts a 16-bit pixel to RGB.
func DecodeDirectWord(w uint16) Color {
	return Color{
		expandDirectChannel(w),
		expandDirectChannel(w >> 5),
		expandDirectChannel(w >> 10),
	}
}

// EncodeWord packs c into a color word, truncating each channel to 5 bits.
// Bit 15 is always clear.
func EncodeWord(c Color) uint16 {
	return uint16(c.R>>3) | uint16(c.G>>3)<<5 | uint16(c.B>>3)<<10
}
