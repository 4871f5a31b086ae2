package tim

import (
	"encoding/binary"
	"fmt"
)

// block is the 12 byte sub-header shared by the CLUT and image blocks.
type block struct {
	size uint32
	x, y uint16
	w, h uint16
}

func readBlock(b []byte) (block, bool) {
	if len(b) < blockHeaderSize {
		return block{}, false
	}
	return block{
		size: binary.LittleEndian.Uint32(b[0:]),
		x:    binary.LittleEndian.Uint16(b[4:]),
		y:    binary.LittleEndian.Uint16(b[6:]),
		w:    binary.LittleEndian.Uint16(b[8:]),
		h:    binary.LittleEndian.Uint16(b[10:]),
	}, true
}

func appendBlock(dst []byte, blk block) []byte {
	var tmp [blockHeaderSize]byte
	binary.LittleEndian.PutUint32(tmp[0:], blk.size)
	binary.LittleEndian.PutUint16(tmp[4:], blk.x)
	binary.LittleEndian.PutUint16(tmp[6:], blk.y)
	binary.LittleEndian.PutUint16(tmp[8:], blk.w)
	binary.LittleEndian.PutUint16(tmp[10:], blk.h)
	return append(dst, tmp[:]...)
}

// decodePalette reads a CLUT block from the start of b. The number of colors
// is derived from the block size, the count in the sub-header is ignored.
func decodePalette(b []byte) ([]Color, block, error) {
	if len(b) < 4 {
		return nil, block{}, ErrTruncatedPaletteBlock
	}
	size := binary.LittleEndian.Uint32(b)
	if uint64(size) > uint64(len(b)) {
		return nil, block{}, ErrTruncatedPaletteBlock
	}
	if size < blockHeaderSize {
		return nil, block{}, fmt.Errorf("%w: CLUT block of %d bytes", ErrBlockSize, size)
	}
	blk, _ := readBlock(b)

	n := (int(size) - blockHeaderSize) / 2
	p := make([]Color, n)
	for i := range p {
		p[i] = DecodePaletteWord(binary.LittleEndian.Uint16(b[blockHeaderSize+i*2:]))
	}
	return p, blk, nil
}

// appendPalette writes p as a CLUT block. The geometry is always 0, 0 with a
// width of the color count and a height of one.
func appendPalette(dst []byte, p []Color) []byte {
	dst = appendBlock(dst, block{
		size: uint32(blockHeaderSize + len(p)*2),
		w:    uint16(len(p)),
		h:    1,
	})
	var tmp [2]byte
	for _, c := range p {
		binary.LittleEndian.PutUint16(tmp[:], EncodeWord(c))
		dst = append(dst, tmp[:]...)
	}
	return dst
}

// DefaultPalette returns the palette used for an indexed image that has no
// CLUT. Three copies of the ramp 0..2^depth-1 are laid end to end and the
// result is split into RGB triples, so entry i is (3i, 3i+1, 3i+2) modulo
// 2^depth rather than a gray ramp. Other tools expect exactly this.
func DefaultPalette(depth int) []Color {
	n := 1 << uint(depth)
	ramp := make([]uint8, 0, 3*n)
	for j := 0; j < 3; j++ {
		for i := 0; i < n; i++ {
			ramp = append(ramp, uint8(i))
		}
	}
	p := make([]Color, n)
	for i := range p {
		p[i] = Color{ramp[3*i], ramp[3*i+1], ramp[3*i+2]}
	}
	return p
}

// IdentityPalette returns the gray ramp (i, i, i) for 0 <= i < 2^depth.
func IdentityPalette(depth int) []Color {
	p := make([]Color, 1<<uint(depth))
	for i := range p {
		p[i] = Color{uint8(i), uint8(i), uint8(i)}
	}
	return p
}
