package stats

import (
	"math"
	"testing"

	"github.com/rasterlite/rl2go/internal/raster"
)

func grayTile(t *testing.T, w, h int, vals []uint8) *raster.Tile {
	t.Helper()
	if len(vals) != w*h {
		t.Fatalf("vals length %d != %d", len(vals), w*h)
	}
	tile, err := raster.NewTile(w, h, raster.SampleUInt8, raster.Grayscale, 1, vals, nil, nil, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	return tile
}

func TestAccumulateMinMaxMean(t *testing.T) {
	s, err := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	tile := grayTile(t, 2, 2, []uint8{10, 20, 30, 40})
	if err := s.Accumulate(tile); err != nil {
		t.Fatal(err)
	}
	b := s.Band(0)
	if b.Count != 4 {
		t.Fatalf("count = %d, want 4", b.Count)
	}
	if b.Min != 10 || b.Max != 40 {
		t.Fatalf("min/max = %g/%g, want 10/40", b.Min, b.Max)
	}
	wantSum := 100.0
	if b.Sum != wantSum {
		t.Fatalf("sum = %g, want %g", b.Sum, wantSum)
	}
}

func TestAccumulateExcludesNoData(t *testing.T) {
	nd, err := raster.NewPixel(raster.SampleUInt8, raster.Grayscale, 1)
	if err != nil {
		t.Fatal(err)
	}
	_ = nd.SetSampleUInt8(0, 99)

	buf := []byte{10, 99, 30, 99}
	tile, err := raster.NewTile(2, 2, raster.SampleUInt8, raster.Grayscale, 1, buf, nil, nil, &nd, nil)
	if err != nil {
		t.Fatal(err)
	}

	s, err := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Accumulate(tile); err != nil {
		t.Fatal(err)
	}
	if s.NoDataCount != 2 {
		t.Fatalf("NoDataCount = %d, want 2", s.NoDataCount)
	}
	if s.ValidCount != 2 {
		t.Fatalf("ValidCount = %d, want 2", s.ValidCount)
	}
	b := s.Band(0)
	if b.Min != 10 || b.Max != 30 {
		t.Fatalf("min/max should exclude no-data: got %g/%g", b.Min, b.Max)
	}
}

func TestMergeCommutative(t *testing.T) {
	a, _ := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	b, _ := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	_ = a.Accumulate(grayTile(t, 2, 1, []uint8{10, 20}))
	_ = b.Accumulate(grayTile(t, 2, 1, []uint8{30, 40}))

	ab, _ := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	_ = ab.Merge(a)
	_ = ab.Merge(b)

	ba, _ := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	_ = ba.Merge(b)
	_ = ba.Merge(a)

	bab := ab.Band(0)
	bba := ba.Band(0)
	if bab.Count != bba.Count || math.Abs(bab.Sum-bba.Sum) > 1e-9 {
		t.Fatalf("merge not commutative: %+v vs %+v", bab, bba)
	}
	if bab.Count != 4 || bab.Sum != 100 {
		t.Fatalf("merged stats wrong: count=%d sum=%g", bab.Count, bab.Sum)
	}
}

func TestSerializeDeserializeRoundTrip(t *testing.T) {
	s, _ := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	_ = s.Accumulate(grayTile(t, 2, 2, []uint8{1, 2, 3, 4}))

	buf := s.Serialize()
	got, err := Deserialize(buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.Sample != s.Sample || got.Kind != s.Kind || got.Bands != s.Bands {
		t.Fatalf("signature mismatch after round trip")
	}
	if got.ValidCount != s.ValidCount {
		t.Fatalf("ValidCount = %d, want %d", got.ValidCount, s.ValidCount)
	}
	wantBand := s.Band(0)
	gotBand := got.Band(0)
	if gotBand.Min != wantBand.Min || gotBand.Max != wantBand.Max {
		t.Fatalf("min/max mismatch: got %+v want %+v", gotBand, wantBand)
	}
	if math.Abs(gotBand.Sum-wantBand.Sum) > 1e-9 {
		t.Fatalf("sum mismatch: got %g want %g", gotBand.Sum, wantBand.Sum)
	}
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	buf := make([]byte, 30)
	if _, err := Deserialize(buf); err == nil {
		t.Fatal("expected error for bad magic")
	}
}

func TestDeserializeRejectsBadCRC(t *testing.T) {
	s, _ := New(raster.SampleUInt8, raster.Grayscale, 1, 0, 0)
	_ = s.Accumulate(grayTile(t, 1, 1, []uint8{5}))
	buf := s.Serialize()
	buf[len(buf)-1] ^= 0xFF
	if _, err := Deserialize(buf); err == nil {
		t.Fatal("expected CRC mismatch error")
	}
}

func TestNewRejectsEmptyRangeForWideSample(t *testing.T) {
	if _, err := New(raster.SampleFloat32, raster.DataGrid, 1, 5, 5); err == nil {
		t.Fatal("expected error for empty histogram range on a wide sample kind")
	}
}
