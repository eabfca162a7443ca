package codec

import (
	"bytes"
	"image/png"

	"github.com/rasterlite/rl2go/internal/raster"
)

// pngCodec wraps stdlib image/png, matching the teacher's
// internal/encode/png.go almost directly: a thin PNGEncoder around
// png.Encoder with BestCompression, generalized to also decode and to route
// through the tile <-> image.Image adapter instead of a caller-supplied
// image.Image. One-half codec: even blob is always empty, and only
// scale 1 decodes (spec S4: PNG decode at scale 2 -> ScaleUnavailable).
type pngCodec struct{}

func (pngCodec) Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool {
	switch kind {
	case raster.Monochrome:
		return sample == raster.SampleBit1 && bands == 1
	case raster.Palette:
		return bands == 1
	case raster.Grayscale:
		return sample == raster.SampleUInt8 && bands == 1
	case raster.Rgb:
		return sample == raster.SampleUInt8 && bands == 3
	default:
		return false
	}
}

func (pngCodec) Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	const op = "pngCodec.Encode"
	img, err := tileToStdImage(tile)
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	enc := &png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, nil, errf(op, raster.KindEncoderFailure, "png encode: %v", err)
	}
	hdr := blobHeader{
		odd: true, littleEndian: littleEndian, compression: PNG,
		sample: tile.Sample, kind: tile.Kind, bands: tile.Bands,
		width: tile.Width, height: tile.Height,
		hasMask: tile.Mask != nil,
	}
	return frameBlob(hdr, buf.Bytes(), nil, nil, nil), nil, nil
}

func (pngCodec) Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "pngCodec.Decode"
	if scale != 1 {
		return nil, errf(op, raster.KindScaleUnavailable, "PNG codec only supports scale 1, got %d", scale)
	}
	hdr, payload, _, _, _, err := unframeBlob(odd, true)
	if err != nil {
		return nil, err
	}
	if hdr.compression != PNG {
		return nil, errf(op, raster.KindCorruptBlob, "blob compression %s is not PNG", hdr.compression)
	}
	img, err := png.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errf(op, raster.KindDecoderFailure, "png decode: %v", err)
	}
	return stdImageToTile(img, hdr.sample, hdr.kind, hdr.bands, hdr.hasMask)
}
