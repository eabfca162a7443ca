package codec

import (
	"bytes"

	"github.com/gen2brain/webp"
	"github.com/rasterlite/rl2go/internal/raster"
)

// webpCodec decodes WebP tiles via the teacher's own gen2brain/webp
// dependency (internal/encode/decode.go's decodeWebP). Encode is not
// implemented: the teacher's WebP encoder needs cgo + libwebp, which this
// module avoids, and gen2brain/webp exposes no encode entry point in any
// of its uses in the retrieved pack. One-half codec; like jpegCodec, scale
// 2/4/8 decode the full image then apply planar.go's box-filter downscale.
type webpCodec struct {
	lossless bool
}

func (webpCodec) Supports(sample raster.SampleKind, kind raster.PixelKind, bands int) bool {
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

func (c webpCodec) Encode(tile *raster.Tile, quality int, littleEndian bool) (odd, even []byte, err error) {
	const op = "webpCodec.Encode"
	return nil, nil, errf(op, raster.KindEncoderFailure, "WebP encode is not implemented: no cgo-free encoder exists in the available dependency set (gen2brain/webp is decode-only here)")
}

func (c webpCodec) Decode(odd, even []byte, scale int, pal *raster.Palette) (*raster.Tile, error) {
	const op = "webpCodec.Decode"
	wantComp := WebPLossy
	if c.lossless {
		wantComp = WebPLossless
	}
	hdr, payload, _, _, _, err := unframeBlob(odd, true)
	if err != nil {
		return nil, err
	}
	if hdr.compression != wantComp {
		return nil, errf(op, raster.KindCorruptBlob, "blob compression %s does not match codec %s", hdr.compression, wantComp)
	}
	img, err := webp.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, errf(op, raster.KindDecoderFailure, "webp decode: %v", err)
	}
	tile, err := stdImageToTile(img, hdr.sample, hdr.kind, hdr.bands, hdr.hasMask)
	if err != nil {
		return nil, err
	}
	if scale == 1 {
		return tile, nil
	}
	return downscaleTile(tile, scale)
}
