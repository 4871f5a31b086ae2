package timedit

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bodgit/timedit/tim"
	"github.com/remeh/sizedwaitgroup"
)

func (t *TimEdit) extractTexture(dir string, texture Texture) error {
	b, err := t.db.TextureData(texture.ID)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("texture %d has gone away", texture.ID)
	}

	base := filepath.Join(dir, texture.SHA1)
	if err := os.WriteFile(base+".tim", b, 0644); err != nil {
		return err
	}

	m, err := tim.Unmarshal(b, nil)
	if err != nil {
		return fmt.Errorf("texture %d: %w", texture.ID, err)
	}

	out := new(bytes.Buffer)
	if err := ExportImage(out, m.Image(), ".png"); err != nil {
		return err
	}
	if err := os.WriteFile(base+".png", out.Bytes(), 0644); err != nil {
		return err
	}

	t.logger.Printf("Extracted texture %d to \"%s\"\n", texture.ID, base)

	return nil
}

// Extract writes every texture in the catalog to dir as both a .tim and a
// .png file named after its SHA-1.
func (t *TimEdit) Extract(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	textures, err := t.db.Textures()
	if err != nil {
		return err
	}

	var (
		mu       sync.Mutex
		firstErr error
	)

	wg := sizedwaitgroup.New(t.workers)
	for _, texture := range textures {
		wg.Add()
		go func(texture Texture) {
			defer wg.Done()
			if err := t.extractTexture(dir, texture); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(texture)
	}
	wg.Wait()

	return firstErr
}
