package timedit

import (
	"crypto/sha1"
	"database/sql"
	"fmt"

	"github.com/bodgit/timedit/tim"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

// Catalog is a database of unique TIM textures and where they were found.
type Catalog struct {
	db  *sql.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// Texture describes a catalogued texture.
type Texture struct {
	ID       int64
	SHA1     string
	BitDepth int
	Width    int
	Height   int
	Colors   int
}

// Source is a file, and the offset within it, that a texture was found in.
type Source struct {
	Path   string
	Offset int64
}

// NewCatalog opens, creating if necessary, the catalog stored in file.
func NewCatalog(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS texture (id INTEGER PRIMARY KEY NOT NULL, sha1 TEXT NOT NULL UNIQUE, bpp INTEGER NOT NULL, width INTEGER NOT NULL, height INTEGER NOT NULL, colors INTEGER NOT NULL, data BLOB NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS source (texture_id INTEGER NOT NULL, path TEXT NOT NULL, byte_offset INTEGER NOT NULL, UNIQUE(path, byte_offset), FOREIGN KEY(texture_id) REFERENCES texture(id))"); err != nil {
		db.Close()
		return nil, err
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, err
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &Catalog{
		db:  db,
		enc: enc,
		dec: dec,
	}, nil
}

// Close closes the catalog.
func (db *Catalog) Close() error {
	db.dec.Close()
	if err := db.enc.Close(); err != nil {
		db.db.Close()
		return err
	}
	return db.db.Close()
}

// AddTexture stores the TIM file at the start of b, ignoring any trailing
// data, and returns its id. Adding the same texture twice returns the
// existing id.
func (db *Catalog) AddTexture(b []byte) (int64, error) {
	h, err := tim.ReadHeader(b)
	if err != nil {
		return 0, err
	}
	b = b[:h.Size]

	sha := fmt.Sprintf("%X", sha1.Sum(b))

	var id int64
	switch err := db.db.QueryRow("SELECT id FROM texture WHERE sha1 = ?", sha).Scan(&id); err {
	case sql.ErrNoRows:
		colors := h.Colors
		if !h.HasPalette {
			colors = 0
		}
		if _, err := db.db.Exec("INSERT OR IGNORE INTO texture (sha1, bpp, width, height, colors, data) VALUES (?, ?, ?, ?, ?, ?)", sha, h.BitDepth, h.Width, h.Height, colors, db.enc.EncodeAll(b, nil)); err != nil {
			return 0, err
		}
		// Another writer may have won the race so look it up again
		if err := db.db.QueryRow("SELECT id FROM texture WHERE sha1 = ?", sha).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	case nil:
		return id, nil
	default:
		return 0, err
	}
}

// AddSource records that texture was found in path at offset.
func (db *Catalog) AddSource(texture int64, path string, offset int64) error {
	if _, err := db.db.Exec("INSERT OR REPLACE INTO source (texture_id, path, byte_offset) VALUES (?, ?, ?)", texture, path, offset); err != nil {
		return err
	}
	return nil
}

// Textures returns every texture in the catalog ordered by id.
func (db *Catalog) Textures() ([]Texture, error) {
	rows, err := db.db.Query("SELECT id, sha1, bpp, width, height, colors FROM texture ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var textures []Texture
	for rows.Next() {
		var t Texture
		if err := rows.Scan(&t.ID, &t.SHA1, &t.BitDepth, &t.Width, &t.Height, &t.Colors); err != nil {
			return nil, err
		}
		textures = append(textures, t)
	}
	return textures, rows.Err()
}

// Sources returns everywhere texture has been found.
func (db *Catalog) Sources(texture int64) ([]Source, error) {
	rows, err := db.db.Query("SELECT path, byte_offset FROM source WHERE texture_id = ? ORDER BY path, byte_offset", texture)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.Path, &s.Offset); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// TextureData returns the TIM file for texture, or nil if there is no such
// texture.
func (db *Catalog) TextureData(texture int64) ([]byte, error) {
	var data []byte
	switch err := db.db.QueryRow("SELECT data FROM texture WHERE id = ?", texture).Scan(&data); err {
	case sql.ErrNoRows:
		return nil, nil
	case nil:
		return db.dec.DecodeAll(data, nil)
	default:
		return nil, err
	}
}
