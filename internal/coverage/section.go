package coverage

import (
	"fmt"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/rasterlite/rl2go/internal/cog"
	"github.com/rasterlite/rl2go/internal/codec"
	"github.com/rasterlite/rl2go/internal/raster"
)

// Section is a single source raster imported into a coverage: a name, an
// optional compression/tile-size override, and the Tile it exclusively
// owns (spec §3/§4.F). Grounded on the teacher's cog.Open/OpenAll
// validate-then-own sequencing: construction either succeeds wholly or
// returns no Section at all, never a half-built one.
type Section struct {
	name        string
	compression codec.Compression
	haveComp    bool
	tileWidth   int
	tileHeight  int
	haveTileDim bool
	tile        *raster.Tile
}

// NewSection consumes ownership of tile (spec §4.F: "create(...) consumes
// ownership of the Tile").
func NewSection(name string, tile *raster.Tile) (*Section, error) {
	const op = "NewSection"
	if name == "" {
		return nil, raster.NewError(op, raster.KindInvalidArgument, "name must not be empty")
	}
	if tile == nil {
		return nil, raster.NewError(op, raster.KindInvalidArgument, "tile must not be nil")
	}
	return &Section{name: name, tile: tile}, nil
}

// WithCompression overrides the coverage's default compression for this
// section alone.
func (s *Section) WithCompression(c codec.Compression) {
	s.compression = c
	s.haveComp = true
}

// WithTileSize overrides the coverage's default tile grid size for this
// section alone.
func (s *Section) WithTileSize(w, h int) {
	s.tileWidth, s.tileHeight = w, h
	s.haveTileDim = true
}

func (s *Section) Name() string      { return s.name }
func (s *Section) Tile() *raster.Tile { return s.tile }

func (s *Section) Compression() (codec.Compression, bool) { return s.compression, s.haveComp }
func (s *Section) TileSize() (w, h int, ok bool)           { return s.tileWidth, s.tileHeight, s.haveTileDim }

// imageFormat identifies the external adapter dispatched to by
// FromFile/ToFile — stdlib image/{png,jpeg} plus the retained cog package
// for GeoTIFF sources (spec §4.F).
type imageFormat int

const (
	FormatPNG imageFormat = iota
	FormatJPEG
	FormatGeoTIFF
)

func formatFromExt(path string) (imageFormat, error) {
	const op = "formatFromExt"
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".png"):
		return FormatPNG, nil
	case strings.HasSuffix(lower, ".jpg"), strings.HasSuffix(lower, ".jpeg"):
		return FormatJPEG, nil
	case strings.HasSuffix(lower, ".tif"), strings.HasSuffix(lower, ".tiff"):
		return FormatGeoTIFF, nil
	default:
		return 0, raster.NewError(op, raster.KindInvalidArgument, "cannot infer image format from path %q", path)
	}
}

// FromFile loads an image using an external format adapter inferred from
// the file extension and returns a Section whose inner Tile has the
// adapter's natural sample/pixel/bands (spec §4.F). GeoTIFF sources reuse
// the teacher's cog.Open/ReadRegion read path, which yields RGBA; every
// source (GeoTIFF, PNG, JPEG) ends up as a UInt8 Rgb 3-band tile.
// Single-band sources are not kept as DataGrid, and samples wider than
// 8 bits are not preserved.
func FromFile(name, path string) (*Section, error) {
	const op = "FromFile"
	format, err := formatFromExt(path)
	if err != nil {
		return nil, err
	}

	switch format {
	case FormatPNG:
		f, err := os.Open(path)
		if err != nil {
			return nil, raster.NewError(op, raster.KindDecoderFailure, "open %s: %v", path, err)
		}
		defer f.Close()
		img, err := png.Decode(f)
		if err != nil {
			return nil, raster.NewError(op, raster.KindDecoderFailure, "png decode %s: %v", path, err)
		}
		tile, err := codec.TileFromImage(img, raster.SampleUInt8, raster.Rgb, 3, true)
		if err != nil {
			return nil, err
		}
		return NewSection(name, tile)

	case FormatJPEG:
		f, err := os.Open(path)
		if err != nil {
			return nil, raster.NewError(op, raster.KindDecoderFailure, "open %s: %v", path, err)
		}
		defer f.Close()
		img, err := jpeg.Decode(f)
		if err != nil {
			return nil, raster.NewError(op, raster.KindDecoderFailure, "jpeg decode %s: %v", path, err)
		}
		tile, err := codec.TileFromImage(img, raster.SampleUInt8, raster.Rgb, 3, false)
		if err != nil {
			return nil, err
		}
		return NewSection(name, tile)

	case FormatGeoTIFF:
		return sectionFromGeoTIFF(name, path)

	default:
		return nil, raster.NewError(op, raster.KindInvalidArgument, "unsupported format")
	}
}

// sectionFromGeoTIFF reuses the teacher's cog package to read the first
// IFD's full extent as a single RGBA region, adapted to an Rgb tile, and
// attaches the GeoTIFF's georeference to the tile.
func sectionFromGeoTIFF(name, path string) (*Section, error) {
	const op = "sectionFromGeoTIFF"
	r, err := cog.Open(path)
	if err != nil {
		return nil, raster.NewError(op, raster.KindDecoderFailure, "cog.Open %s: %v", path, err)
	}
	defer r.Close()

	w, h := r.Width(), r.Height()
	region, err := r.ReadRegion(0, 0, 0, w, h)
	if err != nil {
		return nil, raster.NewError(op, raster.KindDecoderFailure, "ReadRegion %s: %v", path, err)
	}

	tile, err := codec.TileFromImage(region, raster.SampleUInt8, raster.Rgb, 3, false)
	if err != nil {
		return nil, err
	}

	minX, minY, maxX, maxY := r.BoundsInCRS()
	if maxX > minX && maxY > minY {
		geo, gerr := raster.GeorefFrame(0, minX, minY, maxX, maxY, w, h)
		if gerr == nil {
			tile.Geo = &geo
		}
	}

	return NewSection(name, tile)
}

// ToFile dispatches this section's tile to the same external adapters,
// at the given compression quality for lossy formats (spec §4.F).
func (s *Section) ToFile(path string, format imageFormat, quality int) error {
	const op = "ToFile"
	img, err := codec.ImageFromTile(s.tile)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return raster.NewError(op, raster.KindEncoderFailure, "create %s: %v", path, err)
	}
	defer f.Close()

	switch format {
	case FormatPNG:
		if err := png.Encode(f, img); err != nil {
			return raster.NewError(op, raster.KindEncoderFailure, "png encode %s: %v", path, err)
		}
	case FormatJPEG:
		if quality <= 0 {
			quality = 85
		}
		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: quality}); err != nil {
			return raster.NewError(op, raster.KindEncoderFailure, "jpeg encode %s: %v", path, err)
		}
	default:
		return raster.NewError(op, raster.KindInvalidArgument, "ToFile does not support format %v", format)
	}
	return nil
}

func (f imageFormat) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpeg"
	case FormatGeoTIFF:
		return "geotiff"
	default:
		return fmt.Sprintf("imageFormat(%d)", int(f))
	}
}
