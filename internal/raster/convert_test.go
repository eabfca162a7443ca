package raster

import "testing"

func TestToRGBMonochromeInversion(t *testing.T) {
	// spec: Monochrome 0 -> white, 1 -> black
	tile, err := NewTile(2, 1, SampleBit1, Monochrome, 1, []byte{0, 1}, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rgb, err := tile.ToRGB()
	if err != nil {
		t.Fatal(err)
	}
	if rgb[0] != 255 || rgb[1] != 255 || rgb[2] != 255 {
		t.Fatalf("pixel 0 (bit=0) should be white, got %v", rgb[0:3])
	}
	if rgb[3] != 0 || rgb[4] != 0 || rgb[5] != 0 {
		t.Fatalf("pixel 1 (bit=1) should be black, got %v", rgb[3:6])
	}
}

func TestToRGBAGrayscaleStretch(t *testing.T) {
	tile, err := NewTile(1, 1, SampleBit2, Grayscale, 1, []byte{3}, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rgba, err := tile.ToRGBA()
	if err != nil {
		t.Fatal(err)
	}
	if rgba[0] != 0xff || rgba[1] != 0xff || rgba[2] != 0xff {
		t.Fatalf("max 2-bit sample should stretch to 0xff, got %v", rgba[0:3])
	}
	if rgba[3] != 255 {
		t.Fatalf("opaque pixel should carry alpha 255, got %d", rgba[3])
	}
}

func TestToRGBAMaskTransparent(t *testing.T) {
	tile, err := NewTile(1, 1, SampleUInt8, Grayscale, 1, []byte{200}, nil, []byte{0}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rgba, err := tile.ToRGBA()
	if err != nil {
		t.Fatal(err)
	}
	if rgba[3] != 0 {
		t.Fatalf("masked-out pixel should have alpha 0, got %d", rgba[3])
	}
}

func TestToRGBPaletteLookup(t *testing.T) {
	pal, _ := NewPalette(2)
	_ = pal.SetEntry(0, 10, 20, 30, 255)
	_ = pal.SetEntry(1, 40, 50, 60, 255)
	tile, err := NewTile(2, 1, SampleBit1, Palette, 1, []byte{0, 1}, pal, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rgb, err := tile.ToRGB()
	if err != nil {
		t.Fatal(err)
	}
	if rgb[0] != 10 || rgb[1] != 20 || rgb[2] != 30 {
		t.Fatalf("index 0 lookup wrong: %v", rgb[0:3])
	}
	if rgb[3] != 40 || rgb[4] != 50 || rgb[5] != 60 {
		t.Fatalf("index 1 lookup wrong: %v", rgb[3:6])
	}
}

func TestToBGRAOrderFlip(t *testing.T) {
	tile, err := NewTile(1, 1, SampleUInt8, Rgb, 3, []byte{10, 20, 30}, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	bgra, err := tile.ToBGRA()
	if err != nil {
		t.Fatal(err)
	}
	if bgra[0] != 30 || bgra[1] != 20 || bgra[2] != 10 || bgra[3] != 255 {
		t.Fatalf("got %v, want [30 20 10 255]", bgra)
	}
}

func TestToARGBOrder(t *testing.T) {
	tile, err := NewTile(1, 1, SampleUInt8, Rgb, 3, []byte{10, 20, 30}, nil, []byte{0}, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	argb, err := tile.ToARGB()
	if err != nil {
		t.Fatal(err)
	}
	if argb[0] != 0 || argb[1] != 10 || argb[2] != 20 || argb[3] != 30 {
		t.Fatalf("got %v, want [0 10 20 30]", argb)
	}
}

func TestToRGBUnsupportedConversion(t *testing.T) {
	tile, err := NewTile(1, 1, SampleFloat32, DataGrid, 1, make([]byte, 4), nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tile.ToRGB(); err == nil {
		t.Fatal("expected UnsupportedConversion for a DataGrid tile")
	}
}

func TestBandToUInt8(t *testing.T) {
	tile, err := NewTile(1, 1, SampleUInt8, Multiband, 3, []byte{5, 6, 7}, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	band, err := tile.BandToUInt8(1)
	if err != nil {
		t.Fatal(err)
	}
	if band[0] != 6 {
		t.Fatalf("got %d, want 6", band[0])
	}
	if _, err := tile.BandToUInt8(5); err == nil {
		t.Fatal("expected out-of-range error for band index 5")
	}
}

func TestBandsToRGBComposition(t *testing.T) {
	tile, err := NewTile(1, 1, SampleUInt8, Multiband, 4, []byte{1, 2, 3, 4}, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	rgb, err := tile.BandsToRGB(3, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rgb[0] != 4 || rgb[1] != 2 || rgb[2] != 1 {
		t.Fatalf("got %v, want [4 2 1]", rgb)
	}
}
