package tim

import "encoding/binary"

// wordAt returns the i'th little-endian word of b, or zero once b runs out.
func wordAt(b []byte, i int) uint16 {
	if o := i * 2; o+1 < len(b) {
		return binary.LittleEndian.Uint16(b[o:])
	}
	return 0
}

// decodeDirect reads one color word per pixel. Missing pixels are black.
func decodeDirect(b []byte, width, height int) []Color {
	pix := make([]Color, width*height)
	for i := range pix {
		if i*2+1 < len(b) {
			pix[i] = DecodeDirectWord(binary.LittleEndian.Uint16(b[i*2:]))
		}
	}
	return pix
}

// decodeIndexed unpacks 4 or 8 bit indices, lowest bits first. Each row is
// read as a whole number of words, missing words read as zero, and the
// flattened result is cut to width*height.
func decodeIndexed(b []byte, depth, width, height int) []uint8 {
	ppw := pixelsPerWord(depth)
	words := wordsFor(width, ppw)
	mask := uint16(1)<<uint(depth) - 1

	pix := make([]uint8, 0, words*ppw*height)
	for i := 0; i < words*height; i++ {
		w := wordAt(b, i)
		for k := 0; k < ppw; k++ {
			pix = append(pix, uint8(w>>uint(k*depth)&mask))
		}
	}
	return pix[:width*height]
}

func encodeDirect(pix []Color) []byte {
	b := make([]byte, len(pix)*2)
	for i, c := range pix {
		binary.LittleEndian.PutUint16(b[i*2:], EncodeWord(c))
	}
	return b
}

// encode8 writes one index per byte with no row padding.
func encode8(pix []uint8) []byte {
	return append([]byte(nil), pix...)
}

// encode4 writes two indices per byte, the even pixel in the low nibble,
// with no row padding. An odd trailing pixel gets a zero high nibble.
func encode4(pix []uint8) []byte {
	b := make([]byte, (len(pix)+1)/2)
	for i, p := range pix {
		if i&1 == 0 {
			b[i>>1] |= p & 0x0f
		} else {
			b[i>>1] |= (p & 0x0f) << 4
		}
	}
	return b
}

// encodeIndexedRows packs each row separately and pads it to whole words so
// it reads back the same way for any width.
func encodeIndexedRows(pix []uint8, depth, width, height int) []byte {
	rowBytes := wordsFor(width, pixelsPerWord(depth)) * 2
	b := make([]byte, 0, rowBytes*height)
	for y := 0; y < height; y++ {
		row := pix[y*width : (y+1)*width]
		var packed []byte
		if depth == 4 {
			packed = encode4(row)
		} else {
			packed = encode8(row)
		}
		b = append(b, packed...)
		b = append(b, make([]byte, rowBytes-len(packed))...)
	}
	return b
}
