/*
Package timedit is a library for finding, cataloguing and converting
PlayStation TIM textures.
*/
package timedit

import (
	"log"
	"runtime"
)

// TimEdit works on a catalog of textures.
type TimEdit struct {
	db      *Catalog
	logger  *log.Logger
	workers int
}

// New opens the catalog in file. At most workers files are processed at once,
// if workers is less than one the number of CPUs is used.
func New(file string, workers int, logger *log.Logger) (*TimEdit, error) {
	db, err := NewCatalog(file)
	if err != nil {
		return nil, err
	}

	if workers < 1 {
		workers = runtime.NumCPU()
	}

	return &TimEdit{
		db:      db,
		logger:  logger,
		workers: workers,
	}, nil
}

// Catalog returns the underlying catalog.
func (t *TimEdit) Catalog() *Catalog {
	return t.db
}

// Close closes the catalog.
func (t *TimEdit) Close() error {
	return t.db.Close()
}
