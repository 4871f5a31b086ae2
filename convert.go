package timedit

import (
	"errors"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/timedit/tim"
	"github.com/xfmoulet/qoi"
	"golang.org/x/image/bmp"
)

var errUnknownFormat = errors.New("unknown image format")

// ExportImage writes m to w in the format implied by the extension of name;
// one of .png, .gif, .jpg, .jpeg, .bmp, .qoi or .tim.
func ExportImage(w io.Writer, m image.Image, name string) error {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return png.Encode(w, m)
	case ".gif":
		return gif.Encode(w, m, nil)
	case ".jpg", ".jpeg":
		return jpeg.Encode(w, m, &jpeg.Options{Quality: 95})
	case ".bmp":
		return bmp.Encode(w, m)
	case ".qoi":
		return qoi.Encode(w, m)
	case ".tim":
		return tim.Encode(w, m, nil)
	default:
		return errUnknownFormat
	}
}

// Export decodes the TIM file in and writes it to out, converting to the
// format implied by the extension of out.
func Export(in, out string, opts *tim.Options) error {
	b, err := os.ReadFile(in)
	if err != nil {
		return err
	}

	m, err := tim.Unmarshal(b, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := ExportImage(f, m.Image(), out); err != nil {
		return err
	}

	return f.Close()
}

// Import reads the image in, in any registered format, and writes it to out
// as a TIM file.
func Import(in, out string, opts *tim.EncodeOptions) error {
	r, err := os.Open(in)
	if err != nil {
		return err
	}
	defer r.Close()

	m, _, err := image.Decode(r)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := tim.Encode(f, m, opts); err != nil {
		return err
	}

	return f.Close()
}
