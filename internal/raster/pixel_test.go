package raster

import "testing"

func TestNewPixelLegalCombinations(t *testing.T) {
	cases := []struct {
		sample SampleKind
		kind   PixelKind
		bands  int
		ok     bool
	}{
		{SampleBit1, Monochrome, 1, true},
		{SampleUInt8, Monochrome, 1, false},
		{SampleBit4, Palette, 1, true},
		{SampleUInt16, Palette, 1, false},
		{SampleUInt8, Rgb, 3, true},
		{SampleUInt16, Rgb, 3, true},
		{SampleUInt8, Rgb, 4, false},
		{SampleUInt8, Multiband, 2, true},
		{SampleUInt8, Multiband, 1, false},
		{SampleFloat32, DataGrid, 1, true},
		{SampleFloat32, DataGrid, 2, false},
	}
	for _, c := range cases {
		_, err := NewPixel(c.sample, c.kind, c.bands)
		if (err == nil) != c.ok {
			t.Errorf("NewPixel(%s,%s,%d): err=%v, want ok=%v", c.sample, c.kind, c.bands, err, c.ok)
		}
	}
}

func TestNewPixelBandsOverLimit(t *testing.T) {
	if _, err := NewPixel(SampleUInt8, Multiband, maxPixelBands+1); err == nil {
		t.Fatal("expected error for bands exceeding pixel-value limit")
	}
}

func TestPixelSubByteClamp(t *testing.T) {
	px, err := NewPixel(SampleBit2, Grayscale, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := px.SetSampleUInt8(0, 3); err != nil {
		t.Fatalf("in-range set failed: %v", err)
	}
	if err := px.SetSampleUInt8(0, 4); err == nil {
		t.Fatal("expected ValueOutOfRange for Bit2 value 4")
	}
}

func TestPixelTypedRoundTrip(t *testing.T) {
	px, err := NewPixel(SampleFloat64, DataGrid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := px.SetSampleFloat64(0, -12.5); err != nil {
		t.Fatal(err)
	}
	got, err := px.GetSampleFloat64(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != -12.5 {
		t.Fatalf("got %v, want -12.5", got)
	}
}

func TestPixelWrongKindAccessor(t *testing.T) {
	px, err := NewPixel(SampleInt16, DataGrid, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := px.GetSampleFloat32(0); err == nil {
		t.Fatal("expected mismatch error reading Float32 accessor on Int16 pixel")
	}
}

func TestPixelOpacityDefaultsOpaque(t *testing.T) {
	px, err := NewPixel(SampleUInt8, Rgb, 3)
	if err != nil {
		t.Fatal(err)
	}
	if !px.IsOpaque() {
		t.Fatal("new pixel should default to opaque")
	}
	px.SetTransparent()
	if px.IsOpaque() {
		t.Fatal("expected transparent after SetTransparent")
	}
}

func TestPixelEqualIncludesOpacity(t *testing.T) {
	a, _ := NewPixel(SampleUInt8, Grayscale, 1)
	b, _ := NewPixel(SampleUInt8, Grayscale, 1)
	_ = a.SetSampleUInt8(0, 10)
	_ = b.SetSampleUInt8(0, 10)
	if !a.Equal(b) {
		t.Fatal("identical pixels should compare equal")
	}
	b.SetTransparent()
	if a.Equal(b) {
		t.Fatal("opacity mismatch should break equality")
	}
}

func TestPixelEqualNaN(t *testing.T) {
	a, _ := NewPixel(SampleFloat32, DataGrid, 1)
	b, _ := NewPixel(SampleFloat32, DataGrid, 1)
	nan := float32(0)
	nan = nan / nan
	_ = a.SetSampleFloat32(0, nan)
	_ = b.SetSampleFloat32(0, nan)
	if !a.Equal(b) {
		t.Fatal("bitwise NaN compare should report equal per spec §3")
	}
}
