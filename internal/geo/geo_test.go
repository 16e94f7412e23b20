package geo

import (
	"math"
	"testing"

	"github.com/example/roadside-dispatch/internal/models"
)

func TestDistanceZeroForSamePoint(t *testing.T) {
	p := models.Coordinate{Lat: -26.2041, Lng: 28.0473}
	if d := DistanceKm(p, p); d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := models.Coordinate{Lat: -26.2041, Lng: 28.0473} // Johannesburg
	b := models.Coordinate{Lat: -33.9249, Lng: 18.4241} // Cape Town
	d1 := DistanceKm(a, b)
	d2 := DistanceKm(b, a)
	if math.Abs(d1-d2) > 1e-9 {
		t.Fatalf("asymmetric: %f vs %f", d1, d2)
	}
}

func TestDistanceKnownValue(t *testing.T) {
	// Johannesburg to Cape Town is roughly 1265 km great-circle.
	a := models.Coordinate{Lat: -26.2041, Lng: 28.0473}
	b := models.Coordinate{Lat: -33.9249, Lng: 18.4241}
	d := DistanceKm(a, b)
	if d < 1250 || d > 1280 {
		t.Fatalf("expected ~1265 km, got %f", d)
	}
}

func TestRoundKm(t *testing.T) {
	if got := RoundKm(1.23456); got != 1.23 {
		t.Fatalf("expected 1.23, got %f", got)
	}
	if got := RoundKm(1.236); got != 1.24 {
		t.Fatalf("expected 1.24, got %f", got)
	}
}
