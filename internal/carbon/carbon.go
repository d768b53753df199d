// Package carbon estimates the carbon footprint of grocery items from a
// static emissions table and derives human-readable comparisons.
package carbon

import (
	"fmt"
	"math"
	"strings"
)

// Conversion constants for the comparison strings: roughly 6.2 km driven
// in an average car per kg CO2e, and about 130 phone charges per kg CO2e.
const (
	drivingKmPerKg    = 6.2
	phoneChargesPerKg = 130
)

// Footprint is the derived carbon record joined onto an analysis result.
type Footprint struct {
	Item                string  `json:"item"`
	CO2ePerKg           float64 `json:"co2e_per_kg"`
	Category            string  `json:"category"`
	Comparison          string  `json:"comparison"`
	DrivingEquivalentKm float64 `json:"driving_equivalent_km"`
}

type entry struct {
	item      string
	co2ePerKg float64
	category  string
}

// Index looks up footprints in the static emissions table. Read-only
// after construction, safe for concurrent use.
type Index struct {
	entries []entry
}

// NewIndex builds the lookup index over the built-in emissions table.
func NewIndex() *Index {
	return &Index{entries: emissionsTable}
}

// Lookup finds the footprint for an item name. Matching is bidirectional
// substring containment after lowercasing and trimming; the first table
// entry wins. This is a deliberate heuristic so compound names like
// "red apple" or "cherry tomatoes" still match; precise lemmatization is
// out of scope. Returns nil when the item is unknown, which callers must
// treat as "unknown", never as zero.
func (ix *Index) Lookup(itemName string) *Footprint {
	normalized := strings.ToLower(strings.TrimSpace(itemName))
	if normalized == "" {
		return nil
	}
	for _, e := range ix.entries {
		if strings.Contains(normalized, e.item) || strings.Contains(e.item, normalized) {
			return derive(e)
		}
	}
	return nil
}

// All returns footprints for every table entry, in table order.
func (ix *Index) All() []Footprint {
	out := make([]Footprint, 0, len(ix.entries))
	for _, e := range ix.entries {
		out = append(out, *derive(e))
	}
	return out
}

func derive(e entry) *Footprint {
	drivingKm := math.Round(e.co2ePerKg*drivingKmPerKg*10) / 10

	var comparison string
	switch {
	case e.co2ePerKg < 1:
		charges := int(math.Round(e.co2ePerKg * phoneChargesPerKg))
		comparison = fmt.Sprintf("Low impact — equivalent to charging your phone %d times", charges)
	case e.co2ePerKg < 5:
		comparison = fmt.Sprintf("Medium impact — equivalent to driving %.1f km", drivingKm)
	default:
		comparison = fmt.Sprintf("High impact — equivalent to driving %.1f km", drivingKm)
	}

	return &Footprint{
		Item:                e.item,
		CO2ePerKg:           e.co2ePerKg,
		Category:            e.category,
		Comparison:          comparison,
		DrivingEquivalentKm: drivingKm,
	}
}
