package tim

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/ericpauley/go-quantize/quantize"
)

// Model converts any color to the nearest color a 16-bit TIM pixel can hold.
var Model = color.ModelFunc(model)

func model(c color.Color) color.Color {
	return DecodeDirectWord(EncodeWord(toColor(c)))
}

func toColor(c color.Color) Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return Color{n.R, n.G, n.B}
}

// padPalette pads p with black so any index of the given depth is valid.
func padPalette(p []Color, depth int) color.Palette {
	n := 1 << uint(depth)
	if len(p) > n {
		n = len(p)
	}
	cp := make(color.Palette, n)
	for i := range cp {
		if i < len(p) {
			cp[i] = p[i]
		} else {
			cp[i] = Color{}
		}
	}
	return cp
}

// Image returns m as an image.Image. Indexed images become *image.Paletted
// with the palette padded to the full 2^BitDepth entries, 16 bit images
// become *image.NRGBA.
func (m *Image) Image() image.Image {
	r := image.Rect(0, 0, m.Width, m.Height)

	if m.BitDepth == 16 {
		dst := image.NewNRGBA(r)
		for i, c := range m.RGB {
			if i >= m.Width*m.Height {
				break
			}
			o := i * 4
			dst.Pix[o+0] = c.R
			dst.Pix[o+1] = c.G
			dst.Pix[o+2] = c.B
			dst.Pix[o+3] = 0xff
		}
		return dst
	}

	p := m.Palette
	if len(p) == 0 {
		p = DefaultPalette(m.BitDepth)
	}
	dst := image.NewPaletted(r, padPalette(p, m.BitDepth))
	copy(dst.Pix, m.Pix)
	return dst
}

// FromImage converts src to a TIM image of the given bit depth. For 4 and 8
// bit depths a paletted image with few enough colors is used as is,
// otherwise the image is quantized down to 2^depth colors.
func FromImage(src image.Image, depth int) (*Image, error) {
	if pixelsPerWord(depth) == 0 {
		return nil, ErrUnsupportedBitDepth
	}

	b := src.Bounds()
	m := &Image{
		BitDepth: depth,
		Width:    b.Dx(),
		Height:   b.Dy(),
	}
	if m.Width == 0 || m.Height == 0 {
		return nil, ErrNoImageToEncode
	}

	if depth == 16 {
		m.RGB = make([]Color, 0, m.Width*m.Height)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				m.RGB = append(m.RGB, toColor(src.At(x, y)))
			}
		}
		return m, nil
	}

	colors := 1 << uint(depth)

	pm, _ := src.(*image.Paletted)
	if pm == nil {
		if cp, ok := src.ColorModel().(color.Palette); ok {
			pm = image.NewPaletted(b, cp)
			for y := b.Min.Y; y < b.Max.Y; y++ {
				for x := b.Min.X; x < b.Max.X; x++ {
					pm.Set(x, y, cp.Convert(src.At(x, y)))
				}
			}
		}
	}
	if pm == nil || len(pm.Palette) > colors {
		q := quantize.MedianCutQuantizer{}
		pm = image.NewPaletted(b, q.Quantize(make(color.Palette, 0, colors), src))
		draw.Draw(pm, b, src, b.Min, draw.Src)
	}

	m.HasPalette = true
	m.Palette = make([]Color, len(pm.Palette))
	for i, c := range pm.Palette {
		m.Palette[i] = toColor(c)
	}

	m.Pix = make([]uint8, 0, m.Width*m.Height)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m.Pix = append(m.Pix, pm.ColorIndexAt(x, y))
		}
	}

	return m, nil
}

// EncodeOptions controls Encode.
type EncodeOptions struct {
	// BitDepth is one of 4, 8 or 16. Zero means 16.
	BitDepth int
	Options
}

// Encode writes the Image m to w in TIM format.
func Encode(w io.Writer, m image.Image, o *EncodeOptions) error {
	if m == nil {
		return errors.New("tim: nil image")
	}

	var opts EncodeOptions
	if o != nil {
		opts = *o
	}
	if opts.BitDepth == 0 {
		opts.BitDepth = 16
	}

	t, err := FromImage(m, opts.BitDepth)
	if err != nil {
		return err
	}

	b, err := Marshal(t, &opts.Options)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}
