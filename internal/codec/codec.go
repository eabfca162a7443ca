// Package codec implements the tile wire codec: encoding a Tile into an
// (odd, even) blob pair under a chosen compression, and decoding that pair
// back at one of the four supported integer scales.
//
// Grounded on the teacher's internal/encode package (Encoder interface,
// NewEncoder factory dispatch by format) generalized from "always produce
// a single RGBA-shaped image blob" to the two-blob progressive contract.
package codec

import (
	"errors"

	"github.com/rasterlite/rl2go/internal/raster"
)

// Compression identifies a tile-codec family. Availability of a given
// compression for a given tile depends on its sample/pixel/band signature
// (see each codec's Supports).
type Compression uint8

const (
	None Compression = iota
	Deflate
	LZMA
	PNG
	JPEG
	WebPLossless
	WebPLossy
	CCITTFax4
	LZW
)

func (c Compression) String() string {
	switch c {
	case None:
		return "None"
	case Deflate:
		return "Deflate"
	case LZMA:
		return "LZMA"
	case PNG:
		return "PNG"
	case JPEG:
		return "JPEG"
	case WebPLossless:
		return "WebPLossless"
	case WebPLossy:
		return "WebPLossy"
	case CCITTFax4:
		return "CCITTFax4"
	case LZW:
		return "LZW"
	default:
		return "Compression(?)"
	}
}

// Codec is the per-compression encode/decode strategy.
type Codec interface {
	// Supports reports whether this codec applies to the given tile
	// signature, per the spec's compression-applicability table.
	Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool
	// Encode produces the (odd, even) blob pair for tile. even may be
	// nil for one-half codecs. quality is only consulted by lossy codecs.
	Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error)
	// Decode reconstructs a tile from the (odd, even) pair at the
	// requested scale (1, 2, 4 or 8). pal is consulted only for
	// Palette-kind tiles whose payload does not embed its own palette.
	Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error)
}

var registry = map[Compression]Codec{
	None:         planarCodec{compression: None},
	Deflate:      planarCodec{compression: Deflate},
	LZMA:         planarCodec{compression: LZMA},
	PNG:          pngCodec{},
	JPEG:         jpegCodec{},
	WebPLossless: webpCodec{lossless: true},
	WebPLossy:    webpCodec{lossless: false},
	CCITTFax4:    ccittCodec{},
	LZW:          lzwCodec{},
}

func errf(op string, kind raster.Kind, format string, args ...any) error {
	return raster.NewError(op, kind, format, args...)
}

// Encode dispatches to the codec registered for comp.
func Encode(comp Compression, tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	const op = "Encode"
	c, ok := registry[comp]
	if !ok {
		return nil, nil, errf(op, raster.KindUnsupportedCompression, "unknown compression %s", comp)
	}
	if !c.Supports(tile.Sample, tile.Kind, tile.Bands) {
		return nil, nil, errf(op, raster.KindUnsupportedCompression, "%s does not support sample=%s kind=%s bands=%d", comp, tile.Sample, tile.Kind, tile.Bands)
	}
	return c.Encode(tile, quality, littleEndian)
}

// Decode peeks the compression code out of the odd blob's header and
// dispatches to the matching codec.
func Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "Decode"
	if scale != 1 && scale != 2 && scale != 4 && scale != 8 {
		return nil, errf(op, raster.KindInvalidArgument, "scale must be one of 1,2,4,8, got %d", scale)
	}
	comp, err := peekCompression(odd)
	if err != nil {
		recordIfCorrupt(err)
		return nil, err
	}
	c, ok := registry[comp]
	if !ok {
		err := errf(op, raster.KindCorruptBlob, "blob references unknown compression code %d", comp)
		recordIfCorrupt(err)
		return nil, err
	}
	tile, err := c.Decode(odd, even, scale, pal)
	if err != nil {
		recordIfCorrupt(err)
	}
	return tile, err
}

// recordIfCorrupt increments the corrupt-blob counter for any decode
// failure classified as a corrupt blob, regardless of which codec raised
// it (bad magic, length, CRC, or compression mismatch).
func recordIfCorrupt(err error) {
	var rerr *raster.Error
	if errors.As(err, &rerr) && rerr.Kind == raster.KindCorruptBlob {
		corruptBlobTotal.Inc()
	}
}
