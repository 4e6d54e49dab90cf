package services

import (
	"math"
	"testing"
	"ward-pickup-service/internal/domain"
)

func located(id string, lat, lng float64) *domain.PickupRequest {
	return &domain.PickupRequest{ID: id, Location: &domain.Location{Lat: lat, Lng: lng}}
}

func tourIDs(stops []TourStop) []string {
	ids := make([]string, 0, len(stops))
	for _, s := range stops {
		ids = append(ids, s.Pickup.ID)
	}
	return ids
}

func TestNearestNeighborTourOrdersGreedily(t *testing.T) {
	depot := domain.Location{Lat: 0, Lng: 0}
	pickups := []*domain.PickupRequest{
		located("far", 0, 3),
		located("near", 0, 1),
		located("mid", 0, 2),
	}

	stops, end := NearestNeighborTour(depot, pickups)

	got := tourIDs(stops)
	want := []string{"near", "mid", "far"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stop %d = %q, want %q (tour %v)", i, got[i], want[i], got)
		}
	}
	if end.Lng != 3 {
		t.Fatalf("cursor ended at %v, want lng 3", end)
	}
	if math.Abs(stops[0].LegKm-111.19) > 0.1 {
		t.Fatalf("first leg = %.3f km, want ~111.19", stops[0].LegKm)
	}
	// Input must be left untouched.
	if pickups[0].ID != "far" {
		t.Fatalf("input slice was reordered")
	}
}

func TestNearestNeighborTourTiesKeepInputOrder(t *testing.T) {
	depot := domain.Location{Lat: 0, Lng: 0}
	stops, _ := NearestNeighborTour(depot, []*domain.PickupRequest{
		located("east", 0, 1),
		located("west", 0, -1),
	})

	if got := tourIDs(stops); got[0] != "east" {
		t.Fatalf("tour = %v, want east first", got)
	}
}

func TestNearestNeighborTourUnlocatedStopsGoLastAndKeepCursor(t *testing.T) {
	depot := domain.Location{Lat: 0, Lng: 0}
	stops, end := NearestNeighborTour(depot, []*domain.PickupRequest{
		{ID: "nowhere-1"},
		located("a", 0, 1),
		{ID: "nowhere-2"},
	})

	got := tourIDs(stops)
	want := []string{"a", "nowhere-1", "nowhere-2"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tour = %v, want %v", got, want)
		}
	}
	if !math.IsInf(stops[1].LegKm, 1) {
		t.Fatalf("unlocated leg = %v, want +Inf", stops[1].LegKm)
	}
	if end.Lng != 1 {
		t.Fatalf("cursor = %v, want last located stop", end)
	}
}

func TestNearestNeighborTourEmpty(t *testing.T) {
	depot := domain.Location{Lat: 1, Lng: 2}
	stops, end := NearestNeighborTour(depot, nil)
	if len(stops) != 0 {
		t.Fatalf("expected no stops, got %d", len(stops))
	}
	if end != depot {
		t.Fatalf("cursor moved without stops: %v", end)
	}
}
