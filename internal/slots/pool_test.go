package slots_test

import (
	"math/rand"
	"testing"

	"simwatch/internal/sim"
	"simwatch/internal/slots"
)

func numbers(available, busy int) []sim.PhoneNumber {
	out := make([]sim.PhoneNumber, 0, available+busy)
	for i := 0; i < available; i++ {
		out = append(out, sim.PhoneNumber{PhoneNumber: "+1555000" + string(rune('0'+i%10)), IsAvailable: true})
	}
	for i := 0; i < busy; i++ {
		out = append(out, sim.PhoneNumber{PhoneNumber: "+1555900" + string(rune('0'+i%10)), IsAvailable: false, ActiveJobID: "j"})
	}
	return out
}

func TestAvailableCountsOnlyFreeNumbers(t *testing.T) {
	if got := slots.Available(numbers(3, 2), nil); got != 3 {
		t.Fatalf("Available = %d, want 3", got)
	}
	if got := slots.Available(nil, nil); got != 0 {
		t.Fatalf("Available(nil) = %d, want 0", got)
	}
}

func TestCountryFilterRestrictsByPrefix(t *testing.T) {
	snapshot := []sim.PhoneNumber{
		{PhoneNumber: "+919876543210", IsAvailable: true},
		{PhoneNumber: "+15550001234", IsAvailable: true},
		{PhoneNumber: "+919812345678", IsAvailable: false},
	}
	if got := slots.Available(snapshot, slots.CountryFilter("IN")); got != 1 {
		t.Fatalf("Available(IN) = %d, want 1", got)
	}
	if got := slots.Available(snapshot, slots.CountryFilter("")); got != 2 {
		t.Fatalf("Available(any) = %d, want 2", got)
	}
}

func TestCanActivateEnforcesBothBounds(t *testing.T) {
	cases := []struct {
		n, inactive, available int
		want                   bool
	}{
		{1, 1, 1, true},
		{2, 3, 2, true},
		{3, 3, 2, false}, // not enough numbers
		{3, 2, 3, false}, // not enough inactive jobs
		{0, 5, 5, false},
		{-1, 5, 5, false},
	}
	for _, tc := range cases {
		if got := slots.CanActivate(tc.n, tc.inactive, tc.available); got != tc.want {
			t.Fatalf("CanActivate(%d, %d, %d) = %v, want %v", tc.n, tc.inactive, tc.available, got, tc.want)
		}
	}
}

func TestCanActivateProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		inactive := rng.Intn(20)
		available := rng.Intn(20)
		n := rng.Intn(25)
		got := slots.CanActivate(n, inactive, available)
		want := n > 0 && n <= inactive && n <= available
		if got != want {
			t.Fatalf("CanActivate(%d, %d, %d) = %v, want %v", n, inactive, available, got, want)
		}
	}
}

func TestInactiveJobsCountsActivatableOnly(t *testing.T) {
	jobs := []sim.Job{
		{JobID: "a", Status: sim.StatusInactive},
		{JobID: "b", Status: sim.StatusActive},
		{JobID: "c", Status: sim.StatusInactive},
		{JobID: "d", Status: sim.StatusFailed},
	}
	if got := slots.InactiveJobs(jobs); got != 2 {
		t.Fatalf("InactiveJobs = %d, want 2", got)
	}
}

func TestMaxActivatable(t *testing.T) {
	if got := slots.MaxActivatable(3, 2); got != 2 {
		t.Fatalf("MaxActivatable(3,2) = %d, want 2", got)
	}
	if got := slots.MaxActivatable(1, 4); got != 1 {
		t.Fatalf("MaxActivatable(1,4) = %d, want 1", got)
	}
}
