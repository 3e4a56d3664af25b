package units

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestGramsToMithqal(t *testing.T) {
	got := GramsToMithqal(decimal.RequireFromString("4.6083"))
	if !got.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected 1 mithqal, got %s", got)
	}

	got = GramsToMithqal(decimal.RequireFromString("10"))
	if !got.Equal(decimal.RequireFromString("2.17")) {
		t.Fatalf("expected 2.170 mithqal for 10g, got %s", got)
	}
}

func TestMithqalRoundTrip(t *testing.T) {
	grams := MithqalToGrams(decimal.RequireFromString("2.5"))
	if !grams.Equal(decimal.RequireFromString("11.521")) {
		t.Fatalf("expected 11.521g, got %s", grams)
	}
}

func TestSootConversions(t *testing.T) {
	soot := GramsToSoot(decimal.RequireFromString("1.250"))
	if !soot.Equal(decimal.NewFromInt(1250)) {
		t.Fatalf("expected 1250 soot, got %s", soot)
	}

	grams := SootToGrams(decimal.NewFromInt(850))
	if !grams.Equal(decimal.RequireFromString("0.85")) {
		t.Fatalf("expected 0.85g, got %s", grams)
	}
}
