package store

import (
	"database/sql"
	"encoding/binary"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/rasterlite/rl2go/internal/raster"
)

// SQLiteStore is a Store backed by a single SQLite database file: a
// minimal coverages/tiles schema sufficient to back the four §6.4 calls.
// Schema design itself is out of scope (spec Non-goals); this exists to
// give the Region Reader a real, runnable collaborator.
//
// Grounded on other_examples' tarkov-database-tileserver mbtiles reader
// (database/sql + github.com/mattn/go-sqlite3, QueryRow-by-coordinate
// lookups) generalized from a flat z/x/y tile grid to per-coverage,
// per-level tiles carrying their own geographic extent.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS coverages (
	name        TEXT PRIMARY KEY,
	sample      INTEGER NOT NULL,
	kind        INTEGER NOT NULL,
	bands       INTEGER NOT NULL,
	tile_width  INTEGER NOT NULL,
	tile_height INTEGER NOT NULL,
	srid        INTEGER NOT NULL,
	base_hres   REAL NOT NULL,
	base_vres   REAL NOT NULL,
	max_level   INTEGER NOT NULL,
	nodata      BLOB
);
CREATE TABLE IF NOT EXISTS tiles (
	coverage TEXT NOT NULL,
	level    INTEGER NOT NULL,
	id       INTEGER NOT NULL,
	min_x    REAL NOT NULL,
	min_y    REAL NOT NULL,
	max_x    REAL NOT NULL,
	max_y    REAL NOT NULL,
	odd_blob  BLOB NOT NULL,
	even_blob BLOB,
	PRIMARY KEY (coverage, id)
);
CREATE INDEX IF NOT EXISTS idx_tiles_lookup ON tiles (coverage, level, min_x, min_y, max_x, max_y);
`

// OpenSQLiteStore opens (creating if absent) a SQLite database at path and
// ensures the coverages/tiles schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	const op = "OpenSQLiteStore"
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, raster.NewError(op, raster.KindStoreError, "open %s: %v", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, raster.NewError(op, raster.KindStoreError, "create schema: %v", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// PutCoverage inserts or replaces a coverage's metadata row. Not part of
// the Store interface (the core never writes through it) — this is the
// ingestion-side half of the adapter, used by cmd/rl2cli's ingest verb.
func (s *SQLiteStore) PutCoverage(name string, meta CoverageMeta) error {
	const op = "PutCoverage"
	var nodata []byte
	if meta.NoData != nil {
		nodata = encodeNoData(meta.NoData)
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO coverages
		 (name, sample, kind, bands, tile_width, tile_height, srid, base_hres, base_vres, max_level, nodata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		name, int(meta.Sample), int(meta.Kind), meta.Bands,
		meta.TileWidth, meta.TileHeight, meta.SRID,
		meta.BaseHRes, meta.BaseVRes, meta.MaxLevel, nodata,
	)
	if err != nil {
		return raster.NewError(op, raster.KindStoreError, "insert coverage %s: %v", name, err)
	}
	return nil
}

// PutTile inserts or replaces one tile's catalog row and blob pair.
func (s *SQLiteStore) PutTile(coverage string, level int, ref TileRef, odd, even []byte) error {
	const op = "PutTile"
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO tiles
		 (coverage, level, id, min_x, min_y, max_x, max_y, odd_blob, even_blob)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		coverage, level, ref.ID, ref.MinX, ref.MinY, ref.MaxX, ref.MaxY, odd, even,
	)
	if err != nil {
		return raster.NewError(op, raster.KindStoreError, "insert tile %d: %v", ref.ID, err)
	}
	return nil
}

func (s *SQLiteStore) CoverageMeta(name string) (CoverageMeta, error) {
	const op = "CoverageMeta"
	var m CoverageMeta
	var sample, kind int
	var nodata []byte
	row := s.db.QueryRow(
		`SELECT sample, kind, bands, tile_width, tile_height, srid, base_hres, base_vres, max_level, nodata
		 FROM coverages WHERE name = ?`, name)
	if err := row.Scan(&sample, &kind, &m.Bands, &m.TileWidth, &m.TileHeight, &m.SRID, &m.BaseHRes, &m.BaseVRes, &m.MaxLevel, &nodata); err != nil {
		return CoverageMeta{}, raster.NewError(op, raster.KindStoreError, "coverage %q: %v", name, err)
	}
	m.Sample = raster.SampleKind(sample)
	m.Kind = raster.PixelKind(kind)
	if nodata != nil {
		p, err := decodeNoData(nodata, m.Sample, m.Kind, m.Bands)
		if err != nil {
			return CoverageMeta{}, err
		}
		m.NoData = p
	}
	return m, nil
}

func (s *SQLiteStore) TilesInBounds(coverage string, level int, minX, minY, maxX, maxY float64) ([]TileRef, error) {
	const op = "TilesInBounds"
	rows, err := s.db.Query(
		`SELECT id, min_x, min_y, max_x, max_y FROM tiles
		 WHERE coverage = ? AND level = ? AND min_x < ? AND max_x > ? AND min_y < ? AND max_y > ?
		 ORDER BY id ASC`,
		coverage, level, maxX, minX, maxY, minY,
	)
	if err != nil {
		return nil, raster.NewError(op, raster.KindStoreError, "query tiles: %v", err)
	}
	defer rows.Close()

	var refs []TileRef
	for rows.Next() {
		var ref TileRef
		if err := rows.Scan(&ref.ID, &ref.MinX, &ref.MinY, &ref.MaxX, &ref.MaxY); err != nil {
			return nil, raster.NewError(op, raster.KindStoreError, "scan tile row: %v", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, raster.NewError(op, raster.KindStoreError, "iterate tile rows: %v", err)
	}
	return refs, nil
}

func (s *SQLiteStore) FetchBlobs(coverage string, tileID int64) (odd, even []byte, err error) {
	const op = "FetchBlobs"
	row := s.db.QueryRow(`SELECT odd_blob, even_blob FROM tiles WHERE coverage = ? AND id = ?`, coverage, tileID)
	if err := row.Scan(&odd, &even); err != nil {
		return nil, nil, raster.NewError(op, raster.KindStoreError, "tile %d: %v", tileID, err)
	}
	return odd, even, nil
}

func (s *SQLiteStore) PixelToMap(coverage string, tileID int64, col, row int) (x, y float64, err error) {
	const op = "PixelToMap"
	meta, err := s.CoverageMeta(coverage)
	if err != nil {
		return 0, 0, err
	}
	var ref TileRef
	r := s.db.QueryRow(`SELECT id, min_x, min_y, max_x, max_y FROM tiles WHERE coverage = ? AND id = ?`, coverage, tileID)
	if err := r.Scan(&ref.ID, &ref.MinX, &ref.MinY, &ref.MaxX, &ref.MaxY); err != nil {
		return 0, 0, raster.NewError(op, raster.KindStoreError, "tile %d: %v", tileID, err)
	}
	hres := (ref.MaxX - ref.MinX) / float64(meta.TileWidth)
	vres := (ref.MaxY - ref.MinY) / float64(meta.TileHeight)
	x = ref.MinX + float64(col)*hres
	y = ref.MaxY - float64(row)*vres
	return x, y, nil
}

// encodeNoData/decodeNoData pack a no-data Pixel's raw per-band bit
// patterns (exposed by raster.Pixel.RawSample/SetRawSample) as a flat
// blob of 8-byte big-endian words, one per band. The pixel's sample/kind
// are already known from the owning coverage's row and are not repeated.
func encodeNoData(p *raster.Pixel) []byte {
	buf := make([]byte, p.Bands*8)
	for b := 0; b < p.Bands; b++ {
		binary.BigEndian.PutUint64(buf[b*8:], p.RawSample(b))
	}
	return buf
}

func decodeNoData(buf []byte, sample raster.SampleKind, kind raster.PixelKind, bands int) (*raster.Pixel, error) {
	const op = "decodeNoData"
	if len(buf) != bands*8 {
		return nil, raster.NewError(op, raster.KindCorruptBlob, "nodata blob length %d, want %d", len(buf), bands*8)
	}
	p, err := raster.NewPixel(sample, kind, bands)
	if err != nil {
		return nil, err
	}
	for b := 0; b < bands; b++ {
		p.SetRawSample(b, binary.BigEndian.Uint64(buf[b*8:]))
	}
	return &p, nil
}
