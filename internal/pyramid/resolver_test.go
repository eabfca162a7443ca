package pyramid

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

func TestResolveExactBase(t *testing.T) {
	level, scale, err := Resolve(1.0, 4, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	if level != 0 || scale != 1 {
		t.Fatalf("got level=%d scale=%d, want 0,1", level, scale)
	}
}

func TestResolveUsesScaleBeyondMaxLevel(t *testing.T) {
	// requested = 16*r0 exceeds what a 1-level pyramid stores (max r_1 =
	// 2*r0), so the remaining 8x must come from in-level scale at level 1.
	level, scale, err := Resolve(1.0, 1, 16.0)
	if err != nil {
		t.Fatal(err)
	}
	if level != 1 || scale != 8 {
		t.Fatalf("got level=%d scale=%d, want 1,8", level, scale)
	}
}

func TestResolveExactLevelBoundary(t *testing.T) {
	// requested = 16*r0 = r_4 exactly: spec §8's named boundary property
	// requires this to collapse to level 4, scale 1.
	level, scale, err := Resolve(1.0, 4, 16.0)
	if err != nil {
		t.Fatal(err)
	}
	if level != 4 || scale != 1 {
		t.Fatalf("got level=%d scale=%d, want 4,1", level, scale)
	}
}

func TestResolveClosestWithoutExceeding(t *testing.T) {
	// requested = 9*r0: the largest k with r_k <= 9*r0 is k=3 (r_3 = 8*r0),
	// then scale 1 is the closest-without-exceeding remainder at that level.
	level, scale, err := Resolve(1.0, 4, 9.0)
	if err != nil {
		t.Fatal(err)
	}
	if level != 3 || scale != 1 {
		t.Fatalf("got level=%d scale=%d, want 3,1", level, scale)
	}
}

func TestResolveCappedByMaxLevel(t *testing.T) {
	// With maxLevel=0, no pyramid levels beyond base exist; scale alone
	// must cover everything, capped at 8*r0.
	level, scale, err := Resolve(1.0, 0, 1000.0)
	if err != nil {
		t.Fatal(err)
	}
	if level != 0 || scale != 8 {
		t.Fatalf("got level=%d scale=%d, want 0,8 (capped by maxLevel=0)", level, scale)
	}
}

func TestResolveNoMatchWhenFinerThanBase(t *testing.T) {
	_, _, err := Resolve(2.0, 4, 1.0)
	if err == nil {
		t.Fatal("expected NoMatch error for a request finer than the base resolution")
	}
	if k := kindOf(t, err); k != raster.KindNoMatch {
		t.Fatalf("got kind %v, want KindNoMatch", k)
	}
}

func TestResolveRejectsNonPositiveBase(t *testing.T) {
	if _, _, err := Resolve(0, 4, 1.0); err == nil {
		t.Fatal("expected error for non-positive base resolution")
	}
}

func TestResolveRejectsNegativeMaxLevel(t *testing.T) {
	if _, _, err := Resolve(1.0, -1, 1.0); err == nil {
		t.Fatal("expected error for negative maxLevel")
	}
}
