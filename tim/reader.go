package tim

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"io"
)

var (
	// ErrFileTooSmall is returned when there is not even a header.
	ErrFileTooSmall = errors.New("tim: file too small")
	// ErrBadMagic is returned when the magic number does not match.
	ErrBadMagic = errors.New("tim: bad magic number")
	// ErrUnsupportedBppFlag is returned for the reserved bit depth selector.
	ErrUnsupportedBppFlag = errors.New("tim: unsupported bit depth flag")
	// ErrTruncatedPaletteBlock is returned when the CLUT block runs past the
	// end of the data.
	ErrTruncatedPaletteBlock = errors.New("tim: truncated palette block")
	// ErrTruncatedImageBlock is returned when the image block runs past the
	// end of the data.
	ErrTruncatedImageBlock = errors.New("tim: truncated image block")
	// ErrBlockSize is returned when a block claims to be smaller than its
	// own 12 byte sub-header.
	ErrBlockSize = errors.New("tim: block size too small")
)

// Header describes the structure of a TIM file without its pixels.
type Header struct {
	BitDepth   int
	HasPalette bool

	// CLUT block, only set if HasPalette
	PaletteSize int
	PaletteX    int
	PaletteY    int
	Colors      int

	ImageSize int
	ImageX    int
	ImageY    int
	WordWidth int
	Width     int
	Height    int

	// Size is the total number of bytes used by the file
	Size int
}

type decoder struct {
	b    []byte
	opts Options

	hdr     Header
	palette []Color
	pix     []byte
}

func (d *decoder) readHeader() error {
	if len(d.b) < headerSize {
		return ErrFileTooSmall
	}
	if m := binary.LittleEndian.Uint32(d.b); m != Magic {
		return fmt.Errorf("%w: %#08x", ErrBadMagic, m)
	}

	flags := binary.LittleEndian.Uint32(d.b[4:])
	switch flags & flagDepthMask {
	case 0:
		d.hdr.BitDepth = 4
	case 1:
		d.hdr.BitDepth = 8
	case 2:
		d.hdr.BitDepth = 16
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedBppFlag, flags&flagDepthMask)
	}
	d.hdr.HasPalette = flags&flagCLUT != 0
	d.hdr.Size = headerSize

	return nil
}

func (d *decoder) readPalette() error {
	p, blk, err := decodePalette(d.b[d.hdr.Size:])
	if err != nil {
		return err
	}
	d.palette = p
	d.hdr.PaletteSize = int(blk.size)
	d.hdr.PaletteX = int(blk.x)
	d.hdr.PaletteY = int(blk.y)
	d.hdr.Colors = len(p)
	d.hdr.Size += int(blk.size)
	return nil
}

func (d *decoder) readImageBlock() error {
	blk, ok := readBlock(d.b[d.hdr.Size:])
	switch {
	case !ok, uint64(d.hdr.Size)+uint64(blk.size) > uint64(len(d.b)):
		return ErrTruncatedImageBlock
	case blk.size < blockHeaderSize:
		return fmt.Errorf("%w: image block of %d bytes", ErrBlockSize, blk.size)
	}

	start := d.hdr.Size + blockHeaderSize
	d.pix = d.b[start : d.hdr.Size+int(blk.size)]

	d.hdr.ImageSize = int(blk.size)
	d.hdr.ImageX = int(blk.x)
	d.hdr.ImageY = int(blk.y)
	d.hdr.WordWidth = int(blk.w)
	d.hdr.Width = int(blk.w) * pixelsPerWord(d.hdr.BitDepth)
	d.hdr.Height = int(blk.h)
	d.hdr.Size += int(blk.size)
	return nil
}

func (d *decoder) decode(b []byte, configOnly bool) (*Image, error) {
	d.b = b

	if err := d.readHeader(); err != nil {
		return nil, err
	}

	if d.hdr.HasPalette {
		if err := d.readPalette(); err != nil {
			return nil, err
		}
	}

	if err := d.readImageBlock(); err != nil {
		return nil, err
	}

	if configOnly {
		return nil, nil
	}

	m := &Image{
		BitDepth:   d.hdr.BitDepth,
		HasPalette: d.hdr.HasPalette,
		Palette:    d.palette,
		Width:      d.hdr.Width,
		Height:     d.hdr.Height,
	}

	switch m.BitDepth {
	case 16:
		m.RGB = decodeDirect(d.pix, m.Width, m.Height)
	default:
		m.Pix = decodeIndexed(d.pix, m.BitDepth, m.Width, m.Height)
		if len(m.Palette) == 0 {
			if d.opts.IdentityPalette {
				m.Palette = IdentityPalette(m.BitDepth)
			} else {
				m.Palette = DefaultPalette(m.BitDepth)
			}
		}
	}

	return m, nil
}

// ReadHeader parses the structure of the TIM file in b without decoding any
// pixels. Trailing data after the image block is ignored and not counted in
// Size.
func ReadHeader(b []byte) (Header, error) {
	var d decoder
	if _, err := d.decode(b, true); err != nil {
		return Header{}, err
	}
	return d.hdr, nil
}

// Unmarshal decodes the TIM file in b. Pixel data shorter than the image
// dimensions is padded with zero rather than rejected.
func Unmarshal(b []byte, opts *Options) (*Image, error) {
	d := decoder{}
	if opts != nil {
		d.opts = *opts
	}
	return d.decode(b, false)
}

// UnmarshalBinary decodes b into m using the default options.
func (m *Image) UnmarshalBinary(b []byte) error {
	dec, err := Unmarshal(b, nil)
	if err != nil {
		return err
	}
	*m = *dec
	return nil
}

// Decode reads a TIM image from r and returns it as an image.Image.
func Decode(r io.Reader) (image.Image, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m, err := Unmarshal(b, nil)
	if err != nil {
		return nil, err
	}
	return m.Image(), nil
}

// DecodeConfig returns the color model and dimensions of a TIM image without
// decoding the entire image.
func DecodeConfig(r io.Reader) (image.Config, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}

	var d decoder
	if _, err := d.decode(b, true); err != nil {
		return image.Config{}, err
	}

	c := image.Config{
		Width:  d.hdr.Width,
		Height: d.hdr.Height,
	}
	if d.hdr.BitDepth == 16 {
		c.ColorModel = Model
	} else {
		p := d.palette
		if len(p) == 0 {
			p = DefaultPalette(d.hdr.BitDepth)
		}
		c.ColorModel = padPalette(p, d.hdr.BitDepth)
	}
	return c, nil
}

func init() {
	image.RegisterFormat("tim", "\x10\x00\x00\x00", Decode, DecodeConfig)
}
