package query

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"housingcore/pkg/domain"
)

// SortKey selects the project attribute to order by.
type SortKey string

// Supported sort keys.
const (
	SortByName      SortKey = "name"
	SortByOpenDate  SortKey = "open_date"
	SortByCloseDate SortKey = "close_date"
	SortByPrice     SortKey = "price"
)

// Direction is ascending or descending.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseSortKey parses a sort key name.
func ParseSortKey(raw string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(raw))); k {
	case SortByName, SortByOpenDate, SortByCloseDate, SortByPrice:
		return k, nil
	case "":
		return SortByName, nil
	}
	return "", domain.NewValidation(fmt.Sprintf("unknown sort key %q", raw))
}

// ParseDirection parses "asc" or "desc"; empty means ascending.
func ParseDirection(raw string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(raw))); d {
	case Ascending, Descending:
		return d, nil
	case "":
		return Ascending, nil
	}
	return "", domain.NewValidation(fmt.Sprintf("unknown sort direction %q", raw))
}

// Sort returns a sorted copy of projects. Equal keys are ordered by project
// ID ascending in either direction.
func Sort(projects []domain.Project, key SortKey, dir Direction) []domain.Project {
	out := append([]domain.Project(nil), projects...)
	cmp := comparator(key)
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if dir == Descending {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func comparator(key SortKey) func(a, b domain.Project) int {
	switch key {
	case SortByOpenDate:
		return func(a, b domain.Project) int { return a.OpenDate.Compare(b.OpenDate) }
	case SortByCloseDate:
		return func(a, b domain.Project) int { return a.CloseDate.Compare(b.CloseDate) }
	case SortByPrice:
		return func(a, b domain.Project) int { return compareInt(minPrice(a), minPrice(b)) }
	default:
		return func(a, b domain.Project) int { return strings.Compare(a.Name, b.Name) }
	}
}

func minPrice(p domain.Project) int {
	if v, ok := p.MinPrice(); ok {
		return v
	}
	return math.MaxInt
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
