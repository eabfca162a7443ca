package coverage

import (
	"testing"

	"github.com/rasterlite/rl2go/internal/codec"
	"github.com/rasterlite/rl2go/internal/raster"
)

func TestNewSectionOwnsTile(t *testing.T) {
	buf := make([]byte, 4*4*3)
	tile, err := raster.NewTile(4, 4, raster.SampleUInt8, raster.Rgb, 3, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSection("src-1", tile)
	if err != nil {
		t.Fatal(err)
	}
	if s.Tile() != tile {
		t.Fatal("Section.Tile() should return the same Tile it was constructed with")
	}
}

func TestNewSectionRejectsNilTile(t *testing.T) {
	if _, err := NewSection("x", nil); err == nil {
		t.Fatal("expected error for nil tile")
	}
}

func TestSectionOverridesAreOptional(t *testing.T) {
	buf := make([]byte, 2*2*3)
	tile, err := raster.NewTile(2, 2, raster.SampleUInt8, raster.Rgb, 3, buf, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSection("x", tile)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Compression(); ok {
		t.Fatal("compression override should be absent by default")
	}
	s.WithCompression(codec.JPEG)
	c, ok := s.Compression()
	if !ok || c != codec.JPEG {
		t.Fatalf("expected JPEG override, got %v ok=%v", c, ok)
	}
	s.WithTileSize(128, 128)
	w, h, ok := s.TileSize()
	if !ok || w != 128 || h != 128 {
		t.Fatalf("expected 128x128 tile size override, got %dx%d ok=%v", w, h, ok)
	}
}

func TestFormatFromExt(t *testing.T) {
	cases := map[string]imageFormat{
		"a.png":  FormatPNG,
		"a.PNG":  FormatPNG,
		"a.jpg":  FormatJPEG,
		"a.jpeg": FormatJPEG,
		"a.tif":  FormatGeoTIFF,
		"a.tiff": FormatGeoTIFF,
	}
	for path, want := range cases {
		got, err := formatFromExt(path)
		if err != nil {
			t.Fatalf("%s: %v", path, err)
		}
		if got != want {
			t.Fatalf("%s: got %v, want %v", path, got, want)
		}
	}
	if _, err := formatFromExt("a.bmp"); err == nil {
		t.Fatal("expected error for unrecognized extension")
	}
}
