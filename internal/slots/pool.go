package slots

import (
	"strings"

	"simwatch/internal/sim"
)

// Filter restricts which numbers count toward availability.
type Filter func(sim.PhoneNumber) bool

// CountryFilter matches numbers carrying the given ISO country prefix tag.
// An empty code matches everything.
func CountryFilter(code string) Filter {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	prefix := dialPrefixFor(code)
	return func(n sim.PhoneNumber) bool {
		if prefix == "" {
			return true
		}
		return strings.HasPrefix(strings.TrimSpace(n.PhoneNumber), prefix)
	}
}

// dial prefixes for the country codes the backend currently provisions.
func dialPrefixFor(code string) string {
	switch code {
	case "IN":
		return "+91"
	case "US", "CA":
		return "+1"
	case "GB":
		return "+44"
	default:
		return ""
	}
}

// Available counts the free numbers in the snapshot, optionally restricted
// by filter.
func Available(numbers []sim.PhoneNumber, filter Filter) int {
	count := 0
	for _, n := range numbers {
		if !n.IsAvailable {
			continue
		}
		if filter != nil && !filter(n) {
			continue
		}
		count++
	}
	return count
}

// InactiveJobs counts jobs eligible for activation.
func InactiveJobs(jobs []sim.Job) int {
	count := 0
	for _, j := range jobs {
		if j.Status.CanActivate() {
			count++
		}
	}
	return count
}

// CanActivate reports whether n jobs may be activated given the current
// snapshot. Both bounds must hold: enough free numbers and enough inactive
// jobs.
func CanActivate(n, inactiveJobs, available int) bool {
	if n <= 0 {
		return false
	}
	return n <= available && n <= inactiveJobs
}

// MaxActivatable returns the largest request CanActivate would admit.
func MaxActivatable(inactiveJobs, available int) int {
	if inactiveJobs < available {
		return inactiveJobs
	}
	return available
}
