package store

import (
	"testing"

	"github.com/rasterlite/rl2go/internal/raster"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLiteStore(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCoverageMetaRoundTrip(t *testing.T) {
	s := openTestStore(t)
	nd, err := raster.NewPixel(raster.SampleUInt8, raster.Rgb, 3)
	if err != nil {
		t.Fatal(err)
	}
	_ = nd.SetSampleUInt8(0, 255)
	_ = nd.SetSampleUInt8(1, 0)
	_ = nd.SetSampleUInt8(2, 255)

	in := CoverageMeta{
		Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3,
		TileWidth: 256, TileHeight: 256, SRID: 4326,
		BaseHRes: 1.0, BaseVRes: 1.0, MaxLevel: 4,
		NoData: &nd,
	}
	if err := s.PutCoverage("cov1", in); err != nil {
		t.Fatal(err)
	}

	out, err := s.CoverageMeta("cov1")
	if err != nil {
		t.Fatal(err)
	}
	if out.Sample != in.Sample || out.Kind != in.Kind || out.Bands != in.Bands {
		t.Fatalf("signature mismatch: got %v/%v/%d", out.Sample, out.Kind, out.Bands)
	}
	if out.TileWidth != 256 || out.TileHeight != 256 || out.SRID != 4326 || out.MaxLevel != 4 {
		t.Fatalf("field mismatch: %+v", out)
	}
	if out.NoData == nil {
		t.Fatal("expected no-data pixel to round-trip")
	}
	v, _ := out.NoData.GetSampleUInt8(0)
	if v != 255 {
		t.Fatalf("no-data band 0 = %d, want 255", v)
	}
}

func TestTilesInBoundsOrderingAndIntersection(t *testing.T) {
	s := openTestStore(t)
	meta := CoverageMeta{Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3, TileWidth: 8, TileHeight: 8, SRID: 4326, BaseHRes: 1, BaseVRes: 1, MaxLevel: 0}
	if err := s.PutCoverage("cov1", meta); err != nil {
		t.Fatal(err)
	}

	tiles := []TileRef{
		{ID: 2, MinX: 0, MinY: 0, MaxX: 10, MaxY: 10},
		{ID: 1, MinX: 5, MinY: 5, MaxX: 15, MaxY: 15},
		{ID: 3, MinX: 100, MinY: 100, MaxX: 110, MaxY: 110}, // outside query window
	}
	for _, tr := range tiles {
		if err := s.PutTile("cov1", 0, tr, []byte{0xAA}, nil); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.TilesInBounds("cov1", 0, 0, 0, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tiles, want 2 (tile 3 is out of bounds)", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 2 {
		t.Fatalf("expected ascending tile-id order [1,2], got [%d,%d]", got[0].ID, got[1].ID)
	}
}

func TestFetchBlobs(t *testing.T) {
	s := openTestStore(t)
	meta := CoverageMeta{Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3, TileWidth: 8, TileHeight: 8, SRID: 4326, BaseHRes: 1, BaseVRes: 1}
	if err := s.PutCoverage("cov1", meta); err != nil {
		t.Fatal(err)
	}
	ref := TileRef{ID: 1, MinX: 0, MinY: 0, MaxX: 8, MaxY: 8}
	wantOdd := []byte{1, 2, 3}
	if err := s.PutTile("cov1", 0, ref, wantOdd, nil); err != nil {
		t.Fatal(err)
	}
	odd, even, err := s.FetchBlobs("cov1", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(odd) != 3 || odd[0] != 1 {
		t.Fatalf("odd blob mismatch: %v", odd)
	}
	if len(even) != 0 {
		t.Fatalf("expected empty even blob, got %v", even)
	}
}

func TestPixelToMap(t *testing.T) {
	s := openTestStore(t)
	meta := CoverageMeta{Sample: raster.SampleUInt8, Kind: raster.Rgb, Bands: 3, TileWidth: 10, TileHeight: 10, SRID: 4326, BaseHRes: 1, BaseVRes: 1}
	if err := s.PutCoverage("cov1", meta); err != nil {
		t.Fatal(err)
	}
	ref := TileRef{ID: 1, MinX: 100, MinY: 200, MaxX: 110, MaxY: 210}
	if err := s.PutTile("cov1", 0, ref, []byte{0}, nil); err != nil {
		t.Fatal(err)
	}
	x, y, err := s.PixelToMap("cov1", 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if x != 100 || y != 210 {
		t.Fatalf("top-left pixel should map to (minX,maxY) = (100,210), got (%g,%g)", x, y)
	}
}
