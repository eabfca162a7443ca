// Package store defines the external collaborator contract the core reads
// tile catalogs and blobs through (spec §6.4). The core never writes
// through this interface; ingestion populates the store out of band.
package store

import "github.com/rasterlite/rl2go/internal/raster"

// CoverageMeta is the per-coverage metadata the Region Reader and Pyramid
// Resolver need, looked up by coverage name.
type CoverageMeta struct {
	Sample     raster.SampleKind
	Kind       raster.PixelKind
	Bands      int
	TileWidth  int
	TileHeight int
	SRID       int
	BaseHRes   float64
	BaseVRes   float64
	MaxLevel   int
	NoData     *raster.Pixel
}

// TileRef identifies one stored tile at a given pyramid level: its id (used
// for the ascending-id overlap tie-break, spec §4.H step 4) and its
// geographic extent in the coverage SRID.
type TileRef struct {
	ID                         int64
	MinX, MinY, MaxX, MaxY     float64
}

// Store is the external collaborator the core requires (spec §6.4): a
// SQL-class catalog of coverages, tiles, and their encoded blobs.
type Store interface {
	// CoverageMeta looks up a coverage's fixed metadata by name.
	CoverageMeta(name string) (CoverageMeta, error)

	// TilesInBounds enumerates tiles at level whose extent intersects
	// the given bounding box, in ascending tile-id order.
	TilesInBounds(coverage string, level int, minX, minY, maxX, maxY float64) ([]TileRef, error)

	// FetchBlobs returns the (odd, even) blob pair stored for tileID.
	// even may be empty ([]byte{}) for one-half codecs.
	FetchBlobs(coverage string, tileID int64) (odd, even []byte, err error)

	// PixelToMap maps a pixel coordinate (col, row) within the given
	// tile to map coordinates in the coverage SRID (the reverse-geocoding
	// helper of spec §6.4, equivalent to exposing the tile's affine).
	PixelToMap(coverage string, tileID int64, col, row int) (x, y float64, err error)
}
