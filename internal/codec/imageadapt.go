package codec

import (
	"image"
	"image/color"

	"github.com/rasterlite/rl2go/internal/raster"
)

// tileToStdImage converts a conforming Tile (Monochrome, Palette,
// Grayscale(UInt8), or Rgb(UInt8)) into a stdlib image.Image so it can be
// handed to image/png, image/jpeg, or the WebP codec. Grounded on the
// teacher's internal/encode encoders, which all take an image.Image and
// never touch Tile internals directly.
func tileToStdImage(tile *raster.Tile) (image.Image, error) {
	const op = "tileToStdImage"
	w, h := tile.Width, tile.Height
	px, err := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	if err != nil {
		return nil, err
	}

	switch tile.Kind {
	case raster.Monochrome:
		img := image.NewGray(image.Rect(0, 0, w, h))
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				if err := tile.GetPixel(row, col, &px); err != nil {
					return nil, err
				}
				v, _ := px.GetSampleUInt8(0)
				g := uint8(255)
				if v != 0 {
					g = 0
				}
				img.SetGray(col, row, color.Gray{Y: g})
			}
		}
		return img, nil

	case raster.Grayscale:
		if tile.Sample != raster.SampleUInt8 {
			return nil, errf(op, raster.KindUnsupportedConversion, "only UInt8 Grayscale tiles convert to an image, got %s", tile.Sample)
		}
		if tile.Mask == nil {
			img := image.NewGray(image.Rect(0, 0, w, h))
			copy(img.Pix, tile.Buf)
			return img, nil
		}
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				if err := tile.GetPixel(row, col, &px); err != nil {
					return nil, err
				}
				v, _ := px.GetSampleUInt8(0)
				a := uint8(0)
				if px.IsOpaque() {
					a = 255
				}
				img.SetNRGBA(col, row, color.NRGBA{R: v, G: v, B: v, A: a})
			}
		}
		return img, nil

	case raster.Palette:
		pal := make(color.Palette, tile.Palette.Len())
		for i, e := range tile.Palette.Entries() {
			pal[i] = color.NRGBA{R: e.R, G: e.G, B: e.B, A: e.A}
		}
		img := image.NewPaletted(image.Rect(0, 0, w, h), pal)
		for row := 0; row < h; row++ {
			copy(img.Pix[row*img.Stride:row*img.Stride+w], tile.Buf[row*w:(row+1)*w])
		}
		return img, nil

	case raster.Rgb:
		if tile.Sample != raster.SampleUInt8 {
			return nil, errf(op, raster.KindUnsupportedConversion, "only UInt8 Rgb tiles convert to an image, got %s", tile.Sample)
		}
		if tile.Mask == nil {
			img := image.NewRGBA(image.Rect(0, 0, w, h))
			for i := 0; i < w*h; i++ {
				img.Pix[i*4+0] = tile.Buf[i*3+0]
				img.Pix[i*4+1] = tile.Buf[i*3+1]
				img.Pix[i*4+2] = tile.Buf[i*3+2]
				img.Pix[i*4+3] = 255
			}
			return img, nil
		}
		img := image.NewNRGBA(image.Rect(0, 0, w, h))
		for i := 0; i < w*h; i++ {
			a := uint8(0)
			if tile.Mask[i] != 0 {
				a = 255
			}
			img.Pix[i*4+0] = tile.Buf[i*3+0]
			img.Pix[i*4+1] = tile.Buf[i*3+1]
			img.Pix[i*4+2] = tile.Buf[i*3+2]
			img.Pix[i*4+3] = a
		}
		return img, nil

	default:
		return nil, errf(op, raster.KindUnsupportedConversion, "pixel kind %s has no image-codec representation", tile.Kind)
	}
}

// stdImageToTile is the inverse of tileToStdImage, reconstructing a Tile
// of the given signature from a decoded stdlib image. hasMask requests
// that an alpha channel (if the decoded image carries one) be recovered
// into the Tile's mask.
func stdImageToTile(img image.Image, sample raster.SampleKind, kind raster.PixelKind, bands int, hasMask bool) (*raster.Tile, error) {
	const op = "stdImageToTile"
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	bps := sample.BytesPerSample()

	switch kind {
	case raster.Monochrome:
		buf := make([]byte, w*h)
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				gr := color.GrayModel.Convert(img.At(b.Min.X+col, b.Min.Y+row)).(color.Gray)
				if gr.Y < 128 {
					buf[row*w+col] = 1
				}
			}
		}
		return raster.NewTile(w, h, sample, kind, bands, buf, nil, nil, nil, nil)

	case raster.Grayscale:
		buf := make([]byte, w*h)
		var mask []byte
		if hasMask {
			mask = make([]byte, w*h)
		}
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				c := img.At(b.Min.X+col, b.Min.Y+row)
				nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
				buf[row*w+col] = nrgba.R
				if mask != nil {
					if nrgba.A >= 128 {
						mask[row*w+col] = 1
					}
				}
			}
		}
		return raster.NewTile(w, h, sample, kind, bands, buf, nil, mask, nil, nil)

	case raster.Palette:
		pimg, ok := img.(*image.Paletted)
		if !ok {
			return nil, errf(op, raster.KindCorruptBlob, "decoded image is not paletted")
		}
		pal, err := raster.NewPalette(len(pimg.Palette))
		if err != nil {
			return nil, err
		}
		for i, c := range pimg.Palette {
			nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
			if err := pal.SetEntry(i, nrgba.R, nrgba.G, nrgba.B, nrgba.A); err != nil {
				return nil, err
			}
		}
		buf := make([]byte, w*h)
		for row := 0; row < h; row++ {
			copy(buf[row*w:(row+1)*w], pimg.Pix[row*pimg.Stride:row*pimg.Stride+w])
		}
		return raster.NewTile(w, h, sample, kind, bands, buf, pal, nil, nil, nil)

	case raster.Rgb:
		buf := make([]byte, w*h*3*bps)
		var mask []byte
		if hasMask {
			mask = make([]byte, w*h)
		}
		for row := 0; row < h; row++ {
			for col := 0; col < w; col++ {
				c := img.At(b.Min.X+col, b.Min.Y+row)
				nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
				off := (row*w + col) * 3
				buf[off+0] = nrgba.R
				buf[off+1] = nrgba.G
				buf[off+2] = nrgba.B
				if mask != nil {
					if nrgba.A >= 128 {
						mask[row*w+col] = 1
					}
				}
			}
		}
		return raster.NewTile(w, h, sample, kind, bands, buf, nil, mask, nil, nil)

	default:
		return nil, errf(op, raster.KindUnsupportedConversion, "pixel kind %s has no image-codec representation", kind)
	}
}

// ImageFromTile is the exported form of tileToStdImage, for callers outside
// this package (coverage.Section's ToFile) that need a stdlib image.Image
// view of a tile without going through a specific compression's Encode.
func ImageFromTile(tile *raster.Tile) (image.Image, error) { return tileToStdImage(tile) }

// TileFromImage is the exported form of stdImageToTile, used by
// coverage.Section's FromFile to build a Tile directly from a decoded
// stdlib image (PNG/JPEG/GeoTIFF-adapter output) without a compression
// round trip.
func TileFromImage(img image.Image, sample raster.SampleKind, kind raster.PixelKind, bands int, hasMask bool) (*raster.Tile, error) {
	return stdImageToTile(img, sample, kind, bands, hasMask)
}
