package timedit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bodgit/timedit/tim"
	"github.com/dustin/go-humanize"
	"github.com/vchimishuk/chub/cue"
)

const (
	sectorSize = 2048

	// MODE1/2352: 12 sync, 4 header, 2048 data, 288 EDC/ECC
	mode1Header  = 16
	mode1Trailer = 288

	// MODE2/2352 XA form 1: 12 sync, 4 header, 8 subheader, 2048 data, 280 EDC/ECC
	mode2Header  = 24
	mode2Trailer = 280

	// MODE2/2336 is the same without sync and header
	mode2CookedHeader = 8

	// Only the bit depth and CLUT bits are ever set
	timFlagMask = 0x0b
)

var errNoDataTrack = errors.New("audio-only CDs have no textures")

func firstDataTrack(sheet *cue.Sheet) (string, cue.TrackDataType, error) {
	for _, file := range sheet.Files {
		for _, track := range file.Tracks {
			switch track.DataType {
			case cue.DataTypeMode1_2048, cue.DataTypeMode1_2352, cue.DataTypeMode2_2336, cue.DataTypeMode2_2352:
				return file.Name, track.DataType, nil
			}
		}
	}
	return "", cue.DataTypeAudio, errNoDataTrack
}

// readUserData returns the 2048 byte user data area of every sector in r.
// A partial sector at the end is ignored.
func readUserData(r io.Reader, dataType cue.TrackDataType) ([]byte, error) {
	var header, trailer int
	switch dataType {
	case cue.DataTypeMode1_2048:
		return io.ReadAll(r)
	case cue.DataTypeMode1_2352:
		header, trailer = mode1Header, mode1Trailer
	case cue.DataTypeMode2_2352:
		header, trailer = mode2Header, mode2Trailer
	case cue.DataTypeMode2_2336:
		header, trailer = mode2CookedHeader, mode2Trailer
	default:
		return nil, fmt.Errorf("unsupported track type %v", dataType)
	}

	var data []byte
	sector := make([]byte, header+sectorSize+trailer)
	for {
		if _, err := io.ReadFull(r, sector); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return data, nil
			}
			return nil, err
		}
		data = append(data, sector[header:header+sectorSize]...)
	}
}

// findTexture reports the size of the TIM file at the start of b. The checks
// are stricter than decoding needs to be so random data is rarely mistaken
// for a texture.
func findTexture(b []byte) (int, bool) {
	if len(b) < 8 || binary.LittleEndian.Uint32(b) != tim.Magic || binary.LittleEndian.Uint32(b[4:])&^timFlagMask != 0 {
		return 0, false
	}

	h, err := tim.ReadHeader(b)
	if err != nil {
		return 0, false
	}

	switch {
	case h.Width == 0, h.Height == 0:
		return 0, false
	case h.HasPalette && h.Colors == 0:
		return 0, false
	case h.ImageSize-12 != h.WordWidth*2*h.Height:
		return 0, false
	}

	return h.Size, true
}

// scanTextures calls fn with the offset and bytes of every texture found at
// a 4 byte boundary in b.
func scanTextures(b []byte, fn func(int, []byte) error) error {
	for off := 0; off+8 <= len(b); {
		size, ok := findTexture(b[off:])
		if !ok {
			off += 4
			continue
		}
		if err := fn(off, b[off:off+size]); err != nil {
			return err
		}
		off += (size + 3) &^ 3
	}
	return nil
}

// Rip parses the cue sheet in file, reads the first data track and adds any
// textures found in it to the catalog. The recorded offset is the position
// within the user data of the track, i.e. sector number * 2048 plus the
// offset within the sector.
func (t *TimEdit) Rip(file string) error {
	sheet, err := cue.ParseFile(file)
	if err != nil {
		return err
	}

	name, dataType, err := firstDataTrack(sheet)
	if err != nil {
		return err
	}

	f, err := os.Open(filepath.Join(filepath.Dir(file), name))
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := readUserData(f, dataType)
	if err != nil {
		return err
	}
	t.logger.Printf("Scanning %s of data in \"%s\"\n", humanize.Bytes(uint64(len(data))), name)

	var found int
	if err := scanTextures(data, func(off int, b []byte) error {
		id, err := t.db.AddTexture(b)
		if err != nil {
			return err
		}
		found++
		t.logger.Printf("Found %s texture at %#x as texture %d\n", humanize.Bytes(uint64(len(b))), off, id)
		return t.db.AddSource(id, file, int64(off))
	}); err != nil {
		return err
	}

	t.logger.Printf("Found %d textures in \"%s\"\n", found, file)

	return nil
}
