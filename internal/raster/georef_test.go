package raster

import "testing"

func almostEqual(a, b float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d < 1e-9
}

func TestGeorefCenter(t *testing.T) {
	g, err := GeorefCenter(4326, 2, 2, 100, 100, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(g.MinX, 90) || !almostEqual(g.MaxX, 110) {
		t.Fatalf("got MinX=%v MaxX=%v", g.MinX, g.MaxX)
	}
	if !almostEqual(g.MinY, 90) || !almostEqual(g.MaxY, 110) {
		t.Fatalf("got MinY=%v MaxY=%v", g.MinY, g.MaxY)
	}
}

func TestGeorefCornerUpperLeft(t *testing.T) {
	g, err := GeorefCorner(4326, 1, 1, 0, 10, CornerUpperLeft, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(g.MinX, 0) || !almostEqual(g.MaxX, 10) {
		t.Fatalf("got MinX=%v MaxX=%v", g.MinX, g.MaxX)
	}
	if !almostEqual(g.MinY, 0) || !almostEqual(g.MaxY, 10) {
		t.Fatalf("got MinY=%v MaxY=%v", g.MinY, g.MaxY)
	}
}

func TestGeorefFrameDerivesResolution(t *testing.T) {
	g, err := GeorefFrame(3857, 0, 0, 100, 50, 100, 50)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(g.HRes, 1) || !almostEqual(g.VRes, 1) {
		t.Fatalf("got HRes=%v VRes=%v", g.HRes, g.VRes)
	}
}

func TestGeorefFrameRejectsInverted(t *testing.T) {
	if _, err := GeorefFrame(3857, 100, 100, 0, 0, 10, 10); err == nil {
		t.Fatal("expected error for inverted frame")
	}
}

func TestGeorefRejectsNonPositiveResolution(t *testing.T) {
	if _, err := GeorefCenter(4326, 0, 1, 0, 0, 10, 10); err == nil {
		t.Fatal("expected error for zero horizontal resolution")
	}
}
