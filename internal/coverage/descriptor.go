// Package coverage implements the Coverage Descriptor and Section data
// model: the schema for a layered raster and the single-source-raster
// import unit, per spec §3/§4.E-F.
package coverage

import (
	"github.com/rasterlite/rl2go/internal/codec"
	"github.com/rasterlite/rl2go/internal/raster"
)

// Descriptor is the schema for a layered raster, grounded on the teacher's
// internal/pmtiles.WriterOptions/NewHeader (field validation at
// construction, clamped quality).
type Descriptor struct {
	name        string
	sample      raster.SampleKind
	kind        raster.PixelKind
	bands       int
	compression codec.Compression
	quality     int
	tileWidth   int
	tileHeight  int
	srid        int
	hRes, vRes  float64
	nodata      *raster.Pixel
}

// NewDescriptor validates all fields atomically (spec §4.E): sample/pixel/
// bands legal, tile dims >0 and multiples of 8, quality clamped to
// [1,100], resolutions positive, and an optional no-data pixel matching
// sample/pixel/bands.
func NewDescriptor(name string, sample raster.SampleKind, kind raster.PixelKind, bands int, compression codec.Compression, quality, tileWidth, tileHeight, srid int, hRes, vRes float64, nodata *raster.Pixel) (*Descriptor, error) {
	const op = "NewDescriptor"
	if name == "" {
		return nil, raster.NewError(op, raster.KindInvalidArgument, "name must not be empty")
	}
	if _, err := raster.NewPixel(sample, kind, bands); err != nil {
		return nil, err
	}
	if tileWidth <= 0 || tileHeight <= 0 || tileWidth%8 != 0 || tileHeight%8 != 0 {
		return nil, raster.NewError(op, raster.KindInvalidArgument, "tile dims must be positive multiples of 8, got %dx%d", tileWidth, tileHeight)
	}
	if hRes <= 0 || vRes <= 0 {
		return nil, raster.NewError(op, raster.KindInvalidArgument, "resolutions must be positive, got hres=%g vres=%g", hRes, vRes)
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}
	if nodata != nil {
		if nodata.Sample != sample || nodata.Kind != kind || nodata.Bands != bands {
			return nil, raster.NewError(op, raster.KindMismatch, "no-data pixel (%s,%s,%d) does not match coverage (%s,%s,%d)", nodata.Sample, nodata.Kind, nodata.Bands, sample, kind, bands)
		}
	}
	var ndCopy *raster.Pixel
	if nodata != nil {
		c := *nodata
		ndCopy = &c
	}
	return &Descriptor{
		name: name, sample: sample, kind: kind, bands: bands,
		compression: compression, quality: quality,
		tileWidth: tileWidth, tileHeight: tileHeight,
		srid: srid, hRes: hRes, vRes: vRes,
		nodata: ndCopy,
	}, nil
}

func (d *Descriptor) Name() string                   { return d.name }
func (d *Descriptor) Sample() raster.SampleKind       { return d.sample }
func (d *Descriptor) Kind() raster.PixelKind          { return d.kind }
func (d *Descriptor) Bands() int                      { return d.bands }
func (d *Descriptor) Compression() codec.Compression  { return d.compression }
func (d *Descriptor) Quality() int                    { return d.quality }
func (d *Descriptor) TileWidth() int                  { return d.tileWidth }
func (d *Descriptor) TileHeight() int                 { return d.tileHeight }
func (d *Descriptor) SRID() int                       { return d.srid }
func (d *Descriptor) HResolution() float64            { return d.hRes }
func (d *Descriptor) VResolution() float64            { return d.vRes }

// NoData returns a clone of the coverage's no-data pixel, or nil if none.
func (d *Descriptor) NoData() *raster.Pixel {
	if d.nodata == nil {
		return nil
	}
	c := *d.nodata
	return &c
}

// CreatePixelTemplate mints a zero-initialized Pixel matching this
// coverage's sample/pixel/band signature (spec §4.E).
func (d *Descriptor) CreatePixelTemplate() (raster.Pixel, error) {
	return raster.NewPixel(d.sample, d.kind, d.bands)
}
