package timedit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/timedit/tim"
)

// Unpadded 4 bit rows fill as little as a quarter of the space the header
// describes, anything sparser would decode to mostly padding.
const maxShortfall = 4

var errSparse = errors.New("image block too small for its dimensions")

// checkHeader rejects files that are structurally valid but would need far
// more pixel data than they hold.
func checkHeader(h tim.Header) error {
	if h.WordWidth*2*h.Height > maxShortfall*(h.ImageSize-12) {
		return fmt.Errorf("%w: %dx%d in %d bytes", errSparse, h.Width, h.Height, h.ImageSize-12)
	}
	return nil
}

func isHidden(info os.FileInfo) bool {
	return strings.HasPrefix(info.Name(), ".")
}

func (t *TimEdit) findFiles(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if isHidden(info) && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() || !strings.EqualFold(filepath.Ext(file), ".tim") {
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (t *TimEdit) fileWorker(ctx context.Context, in <-chan string) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for file := range in {
			b, err := os.ReadFile(file)
			if err != nil {
				errc <- err
				return
			}

			// Anything that doesn't parse isn't a texture, skip it
			h, err := tim.ReadHeader(b)
			if err == nil {
				err = checkHeader(h)
			}
			if err != nil {
				t.logger.Printf("Skipping \"%s\": %v\n", file, err)
				continue
			}

			id, err := t.db.AddTexture(b)
			if err != nil {
				errc <- err
				return
			}

			if err := t.db.AddSource(id, file, 0); err != nil {
				errc <- err
				return
			}

			t.logger.Printf("Added \"%s\" as texture %d\n", file, id)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and adds every valid .tim file to the catalog.
func (t *TimEdit) Scan(path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := t.findFiles(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	for i := 0; i < t.workers; i++ {
		errc, err := t.fileWorker(ctx, files)
		if err != nil {
			return err
		}
		errcList = append(errcList, errc)
	}

	return waitForPipeline(errcList...)
}
