// Package directory derives the visible doctor list from a loaded snapshot and
// debounced filter criteria.
package directory

import (
	"sort"
	"strings"

	"github.com/zatekoja/doctorconnect/internal/domain/entities"
)

// View is the filtered, sorted directory. Doctors is shared with the engine's
// memo and must be treated as read-only.
type View struct {
	Doctors []entities.DoctorRecord
	Count   int
}

// Derive filters and sorts list by c. It never modifies list and always
// returns the same membership and order for the same inputs.
func Derive(list []entities.DoctorRecord, c entities.FilterCriteria) View {
	m := newMatcher(c)

	out := make([]entities.DoctorRecord, 0, len(list))
	for _, d := range list {
		if m.matches(d) {
			out = append(out, d)
		}
	}

	switch c.Sort {
	case entities.SortRating:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].SortRating() > out[j].SortRating()
		})
	case entities.SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PriceMinCents < out[j].PriceMinCents
		})
	case entities.SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PriceMinCents > out[j].PriceMinCents
		})
	}

	return View{Doctors: out, Count: len(out)}
}

// Matches reports whether d satisfies every active criterion in c
func Matches(d entities.DoctorRecord, c entities.FilterCriteria) bool {
	return newMatcher(c).matches(d)
}

type matcher struct {
	specialty    string
	city         string
	minCents     *float64
	maxCents     *float64
	onlyVerified bool
}

func newMatcher(c entities.FilterCriteria) matcher {
	m := matcher{
		specialty:    strings.ToLower(strings.TrimSpace(c.Specialty)),
		city:         strings.ToLower(strings.TrimSpace(c.City)),
		onlyVerified: c.OnlyVerified,
	}
	if c.MinPriceRON != nil {
		v := *c.MinPriceRON * 100
		m.minCents = &v
	}
	if c.MaxPriceRON != nil {
		v := *c.MaxPriceRON * 100
		m.maxCents = &v
	}
	return m
}

func (m matcher) matches(d entities.DoctorRecord) bool {
	if m.specialty != "" && !strings.Contains(strings.ToLower(d.Specialty), m.specialty) {
		return false
	}
	if m.city != "" && !strings.Contains(strings.ToLower(d.City), m.city) {
		return false
	}
	if m.minCents != nil && float64(d.PriceMinCents) < *m.minCents {
		return false
	}
	if m.maxCents != nil && float64(d.PriceMaxCents) > *m.maxCents {
		return false
	}
	if m.onlyVerified && !d.Verified {
		return false
	}
	return true
}
