package codec

import (
	"errors"
	"testing"

	"github.com/rasterlite/rl2go/internal/raster"
)

func kindOf(t *testing.T, err error) raster.Kind {
	t.Helper()
	var rerr *raster.Error
	if !errors.As(err, &rerr) {
		t.Fatalf("error %v is not a *raster.Error", err)
	}
	return rerr.Kind
}

// makeTile builds a deterministic UInt8 Rgb tile for round-trip tests.
func makeTile(t *testing.T, w, h int) *raster.Tile {
	t.Helper()
	buf := make([]byte, w*h*3)
	for i := range buf {
		buf[i] = byte((i * 7) % 251)
	}
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Rgb, 3, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatalf("NewTile: %v", err)
	}
	return tile
}

func TestPlanarRoundTripScale1(t *testing.T) {
	for _, comp := range []Compression{None, Deflate, LZMA} {
		tile := makeTile(t, 6, 6)
		odd, even, err := Encode(comp, tile, 0, true)
		if err != nil {
			t.Fatalf("%s encode: %v", comp, err)
		}
		got, err := Decode(odd, even, 1, nil)
		if err != nil {
			t.Fatalf("%s decode scale 1: %v", comp, err)
		}
		if got.Width != tile.Width || got.Height != tile.Height {
			t.Fatalf("%s: dims %dx%d, want %dx%d", comp, got.Width, got.Height, tile.Width, tile.Height)
		}
		srcPx, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
		dstPx, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
		for row := 0; row < tile.Height; row++ {
			for col := 0; col < tile.Width; col++ {
				_ = tile.GetPixel(row, col, &srcPx)
				_ = got.GetPixel(row, col, &dstPx)
				if !srcPx.Equal(dstPx) {
					t.Fatalf("%s: pixel mismatch at (%d,%d)", comp, row, col)
				}
			}
		}
	}
}

func TestPlanarByteOrderIsTransportOnly(t *testing.T) {
	tile := makeTile(t, 4, 4)
	oddLE, evenLE, err := Encode(Deflate, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	oddBE, evenBE, err := Encode(Deflate, tile, 0, false)
	if err != nil {
		t.Fatal(err)
	}
	gotLE, err := Decode(oddLE, evenLE, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	gotBE, err := Decode(oddBE, evenBE, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	px1, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	px2, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	for row := 0; row < tile.Height; row++ {
		for col := 0; col < tile.Width; col++ {
			_ = gotLE.GetPixel(row, col, &px1)
			_ = gotBE.GetPixel(row, col, &px2)
			if !px1.Equal(px2) {
				t.Fatalf("byte order should not affect decoded value at (%d,%d)", row, col)
			}
		}
	}
}

func TestPlanarProgressiveScale2IsLiteralSubsample(t *testing.T) {
	w, h := 8, 8
	buf := make([]byte, w*h*3)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			off := (row*w + col) * 3
			buf[off] = byte(row*10 + col)
			buf[off+1] = byte(row)
			buf[off+2] = byte(col)
		}
	}
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Rgb, 3, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	odd, even, err := Encode(None, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	scale2, err := Decode(odd, even, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if scale2.Width != 4 || scale2.Height != 4 {
		t.Fatalf("scale-2 dims %dx%d, want 4x4", scale2.Width, scale2.Height)
	}
	px, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			_ = scale2.GetPixel(r, c, &px)
			wantR := (2 * r) * 10 + (2 * c)
			if int(px.RawSample(0)) != wantR {
				t.Fatalf("scale2(%d,%d) band0 = %d, want literal subsample %d", r, c, px.RawSample(0), wantR)
			}
		}
	}
}

func TestPlanarDownscaleExcludesNoData(t *testing.T) {
	w, h := 2, 2
	buf := []byte{10, 20, 30, 99}
	nd, _ := raster.NewPixel(raster.SampleUInt8, raster.Grayscale, 1)
	_ = nd.SetSampleUInt8(0, 99)
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Grayscale, 1, buf, nil, nil, &nd, nil)
	if err != nil {
		t.Fatal(err)
	}
	down, err := downscaleTile(tile, 2)
	if err != nil {
		t.Fatal(err)
	}
	if down.Width != 1 || down.Height != 1 {
		t.Fatalf("downscaled dims %dx%d, want 1x1", down.Width, down.Height)
	}
	px, _ := raster.NewPixel(raster.SampleUInt8, raster.Grayscale, 1)
	_ = down.GetPixel(0, 0, &px)
	v, _ := px.GetSampleUInt8(0)
	if v != 20 {
		t.Fatalf("mean excluding no-data = %d, want (10+20+30)/3 = 20", v)
	}
}

func TestPlanarScaleInvalid(t *testing.T) {
	tile := makeTile(t, 4, 4)
	odd, even, err := Encode(None, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Decode(odd, even, 3, nil); err == nil {
		t.Fatal("expected error for unsupported scale 3")
	} else if k := kindOf(t, err); k != raster.KindInvalidArgument {
		t.Fatalf("got Kind %s, want InvalidArgument", k)
	}
}

func TestPNGRoundTrip(t *testing.T) {
	tile := makeTile(t, 5, 5)
	odd, even, err := Encode(PNG, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if even != nil {
		t.Fatal("PNG codec should produce a nil even blob")
	}
	got, err := Decode(odd, even, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	px1, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	px2, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	for row := 0; row < tile.Height; row++ {
		for col := 0; col < tile.Width; col++ {
			_ = tile.GetPixel(row, col, &px1)
			_ = got.GetPixel(row, col, &px2)
			if !px1.Equal(px2) {
				t.Fatalf("PNG round trip mismatch at (%d,%d)", row, col)
			}
		}
	}
}

func TestPNGScaleUnavailable(t *testing.T) {
	tile := makeTile(t, 4, 4)
	odd, even, err := Encode(PNG, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(odd, even, 2, nil)
	if err == nil {
		t.Fatal("expected ScaleUnavailable decoding PNG at scale 2")
	}
	if k := kindOf(t, err); k != raster.KindScaleUnavailable {
		t.Fatalf("got Kind %s, want ScaleUnavailable", k)
	}
}

func TestJPEGRoundTripApprox(t *testing.T) {
	w, h := 8, 8
	buf := make([]byte, w*h)
	for i := range buf {
		buf[i] = byte(128)
	}
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Grayscale, 1, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	odd, even, err := Encode(JPEG, tile, 80, true)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(odd, even, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	px, _ := raster.NewPixel(tile.Sample, tile.Kind, tile.Bands)
	_ = got.GetPixel(0, 0, &px)
	v, _ := px.GetSampleUInt8(0)
	if v < 120 || v > 136 {
		t.Fatalf("jpeg quality-80 flat gray decoded to %d, want close to 128", v)
	}
}

func TestJPEGDecodeAtScale4(t *testing.T) {
	w, h := 512, 512
	buf := make([]byte, w*h*3)
	for i := range buf {
		buf[i] = byte(128)
	}
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Rgb, 3, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	odd, even, err := Encode(JPEG, tile, 80, true)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Decode(odd, even, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.Width != 128 || got.Height != 128 {
		t.Fatalf("jpeg scale-4 decode size = %dx%d, want 128x128", got.Width, got.Height)
	}
}

func TestWebPEncodeUnimplemented(t *testing.T) {
	w, h := 4, 4
	buf := make([]byte, w*h)
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Grayscale, 1, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, _, err = Encode(WebPLossless, tile, 0, true)
	if err == nil {
		t.Fatal("expected EncoderFailure for WebP encode")
	}
	if k := kindOf(t, err); k != raster.KindEncoderFailure {
		t.Fatalf("got Kind %s, want EncoderFailure", k)
	}
}

func TestLZWRoundTripAllIntegerSamples(t *testing.T) {
	kinds := []raster.SampleKind{
		raster.SampleUInt8, raster.SampleInt8,
		raster.SampleUInt16, raster.SampleInt16,
		raster.SampleUInt32, raster.SampleInt32,
	}
	for _, sample := range kinds {
		w, h := 5, 3
		buf := make([]byte, w*h*sample.BytesPerSample())
		for i := range buf {
			buf[i] = byte((i*31 + 7) % 256)
		}
		tile, err := raster.NewTile(w, h, sample, raster.DataGrid, 1, buf, nil, nil, nil, nil)
		if err != nil {
			t.Fatalf("%s: NewTile: %v", sample, err)
		}
		odd, even, err := Encode(LZW, tile, 0, true)
		if err != nil {
			t.Fatalf("%s: encode: %v", sample, err)
		}
		if even != nil {
			t.Fatalf("%s: LZW is odd-only, expected nil even blob", sample)
		}
		got, err := Decode(odd, even, 1, nil)
		if err != nil {
			t.Fatalf("%s: decode: %v", sample, err)
		}
		if len(got.Buf) != len(tile.Buf) {
			t.Fatalf("%s: buffer length %d, want %d", sample, len(got.Buf), len(tile.Buf))
		}
		for i := range tile.Buf {
			if got.Buf[i] != tile.Buf[i] {
				t.Fatalf("%s: byte %d = %d, want %d", sample, i, got.Buf[i], tile.Buf[i])
			}
		}
	}
}

func TestLZWRejectsFloat(t *testing.T) {
	c := lzwCodec{}
	if c.Supports(raster.SampleFloat32, raster.DataGrid, 1) {
		t.Fatal("LZW should not claim support for float samples")
	}
}

func TestLZWCodecRawRoundTrip(t *testing.T) {
	inputs := [][]byte{
		{},
		{0},
		{1, 1, 1, 1, 1, 1, 1, 1},
		[]byte("the quick brown fox jumps over the lazy dog the quick brown fox"),
	}
	for _, in := range inputs {
		encoded := lzwEncode(in)
		out, err := lzwDecode(encoded)
		if err != nil {
			t.Fatalf("lzwDecode: %v", err)
		}
		if len(out) != len(in) {
			t.Fatalf("round trip length %d, want %d", len(out), len(in))
		}
		for i := range in {
			if out[i] != in[i] {
				t.Fatalf("byte %d = %d, want %d", i, out[i], in[i])
			}
		}
	}
}

func TestCCITTRoundTripMonochrome(t *testing.T) {
	w, h := 9, 5
	buf := make([]byte, w*h)
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			if (row+col)%3 == 0 {
				buf[row*w+col] = 1
			}
		}
	}
	tile, err := raster.NewTile(w, h, raster.SampleBit1, raster.Monochrome, 1, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	odd, even, err := Encode(CCITTFax4, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	if even != nil {
		t.Fatal("CCITT is odd-only, expected nil even blob")
	}
	got, err := Decode(odd, even, 1, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := range buf {
		if got.Buf[i] != buf[i] {
			t.Fatalf("byte %d = %d, want %d", i, got.Buf[i], buf[i])
		}
	}
}

func TestCCITTScaleUnavailable(t *testing.T) {
	w, h := 4, 4
	buf := make([]byte, w*h)
	tile, err := raster.NewTile(w, h, raster.SampleBit1, raster.Monochrome, 1, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	odd, even, err := Encode(CCITTFax4, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}
	_, err = Decode(odd, even, 2, nil)
	if err == nil {
		t.Fatal("expected ScaleUnavailable")
	}
	if k := kindOf(t, err); k != raster.KindScaleUnavailable {
		t.Fatalf("got Kind %s, want ScaleUnavailable", k)
	}
}

func TestPaletteMismatchDetected(t *testing.T) {
	pal, err := raster.NewPalette(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := pal.SetEntryHex(0, "#000000"); err != nil {
		t.Fatal(err)
	}
	if err := pal.SetEntryHex(1, "#ffffff"); err != nil {
		t.Fatal(err)
	}
	w, h := 2, 2
	buf := []byte{0, 1, 1, 0}
	tile, err := raster.NewTile(w, h, raster.SampleBit1, raster.Palette, 1, buf, pal, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	odd, even, err := Encode(None, tile, 0, true)
	if err != nil {
		t.Fatal(err)
	}

	otherPal, err := raster.NewPalette(2)
	if err != nil {
		t.Fatal(err)
	}
	_ = otherPal.SetEntryHex(0, "#ff0000")
	_ = otherPal.SetEntryHex(1, "#00ff00")

	_, err = Decode(odd, even, 1, otherPal)
	if err == nil {
		t.Fatal("expected PaletteMismatch")
	}
	if k := kindOf(t, err); k != raster.KindPaletteMismatch {
		t.Fatalf("got Kind %s, want PaletteMismatch", k)
	}
}
