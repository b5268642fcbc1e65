package prayer

import "testing"

func TestLocationKeyStableAcrossNearDuplicates(t *testing.T) {
	a := LocationKey(23.810300, 90.412500)
	b := LocationKey(23.8103001, 90.41250004)
	if a != b {
		t.Errorf("LocationKey() not stable across near-identical coords: %q vs %q", a, b)
	}
}

func TestLocationKeyDistinctForDistinctLocations(t *testing.T) {
	a := LocationKey(23.8103, 90.4125)
	b := LocationKey(51.5074, -0.1278)
	if a == b {
		t.Errorf("LocationKey() collided for distinct coordinates: %q", a)
	}
}

func TestLocationKeyHandlesNegativeCoordinates(t *testing.T) {
	key := LocationKey(-33.8688, 151.2093)
	if key == "" {
		t.Error("LocationKey() returned empty string")
	}
}
