package codec

import (
	"bytes"
	"image/jpeg"

	"github.com/rasterlite/rl2go/internal/raster"
)

// jpegCodec wraps stdlib image/jpeg, matching the teacher's
// internal/encode/jpeg.go's quality-default behavior (<=0 -> 85). One-half
// codec: the full image always decodes at scale 1, then scale 2/4/8 apply
// planar.go's box-filter downscale on top (spec scenario S5).
type jpegCodec struct{}

const defaultJPEGQuality = 85

func (jpegCodec) Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool {
	if sample != raster.SampleUInt8 {
		return false
	}
	switch kind {
	case raster.Grayscale:
		return bands == 1
	case raster.Rgb:
		return bands == 3
	default:
		return false
	}
}

func (jpegCodec) Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	const op = "jpegCodec.Encode"
	img, err := tileToStdImage(tile)
	if err != nil {
		return nil, nil, err
	}
	if quality <= 0 {
		quality = defaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, nil, errf(op, raster.KindEncoderFailure, "jpeg encode: %v", err)
	}
	hdr := blobHeader{
		odd: true, littleEndian: littleEndian, compression: JPEG,
		sample: tile.Sample, kind: tile.Kind, bands: tile.Bands,
		width: tile.Width, height: tile.Height,
	}
	return frameBlob(hdr, buf.Bytes(), nil, nil, nil), nil, nil
}

func (jpegCodec) Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "jpegCodec.Decode"
	hdr, payload, _, _, _, err := unframeBlob(odd, true)
	if err != nil {
		return nil, err
	}
	if hdr.compression != JPEG {
		return nil, errf(op, raster.KindCorruptBlob, "blob compression %s is not JPEG", hdr.compression)
	}
	img, err := jpeg.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errf(op, raster.KindDecoderFailure, "jpeg decode: %v", err)
	}
	tile, err := stdImageToTile(img, hdr.sample, hdr.kind, hdr.bands, false)
	if err != nil {
		return nil, err
	}
	if scale == 1 {
		return tile, nil
	}
	return downscaleTile(tile, scale)
}
