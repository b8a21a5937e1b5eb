package query

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"housingcore/pkg/domain"
)

// Criteria is a conjunction of optional project filters. Zero values mean
// "not supplied".
type Criteria struct {
	Neighbourhood string
	OpensAfter    domain.Date
	ClosesBefore  domain.Date
	FlatTypes     []domain.FlatType
	MinPrice      *int
	MaxPrice      *int
}

// IsEmpty reports whether no criterion is set.
func (c Criteria) IsEmpty() bool {
	return c.Neighbourhood == "" && c.OpensAfter.IsZero() && c.ClosesBefore.IsZero() &&
		len(c.FlatTypes) == 0 && c.MinPrice == nil && c.MaxPrice == nil
}

// Matches reports whether p satisfies every supplied criterion.
func (c Criteria) Matches(p domain.Project) bool {
	if c.Neighbourhood != "" && !strings.EqualFold(strings.TrimSpace(p.Neighbourhood), strings.TrimSpace(c.Neighbourhood)) {
		return false
	}
	if !c.OpensAfter.IsZero() && p.OpenDate.Before(c.OpensAfter) {
		return false
	}
	if !c.ClosesBefore.IsZero() && p.CloseDate.After(c.ClosesBefore) {
		return false
	}
	if (len(c.FlatTypes) > 0 || c.MinPrice != nil || c.MaxPrice != nil) && !anyFlat(p, c.matchesFlat) {
		return false
	}
	return true
}

// matchesFlat applies the flat-type and price criteria to a single flat.
func (c Criteria) matchesFlat(f domain.Flat) bool {
	if len(c.FlatTypes) > 0 && !containsType(c.FlatTypes, f.Type) {
		return false
	}
	if c.MinPrice != nil && f.Price < *c.MinPrice {
		return false
	}
	return c.MaxPrice == nil || f.Price <= *c.MaxPrice
}

// Filter returns the projects matching c, preserving order.
func Filter(projects []domain.Project, c Criteria) []domain.Project {
	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		if c.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}

// Criteria keys accepted by ParseCriteria.
const (
	KeyNeighbourhood = "neighbourhood"
	KeyOpensAfter    = "opens_after"
	KeyClosesBefore  = "closes_before"
	KeyFlatTypes     = "flat_types"
	KeyMinPrice      = "min_price"
	KeyMaxPrice      = "max_price"
)

// ParseCriteria builds Criteria from key/value text. A malformed value or an
// unknown key is a Validation failure, never an empty filter.
func ParseCriteria(fields map[string]string) (Criteria, error) {
	var c Criteria
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		raw := strings.TrimSpace(fields[key])
		if raw == "" {
			continue
		}
		switch strings.ToLower(key) {
		case KeyNeighbourhood:
			c.Neighbourhood = raw
		case KeyOpensAfter:
			d, err := domain.ParseDate(raw)
			if err != nil {
				return Criteria{}, err
			}
			c.OpensAfter = d
		case KeyClosesBefore:
			d, err := domain.ParseDate(raw)
			if err != nil {
				return Criteria{}, err
			}
			c.ClosesBefore = d
		case KeyFlatTypes:
			for _, part := range strings.Split(raw, ",") {
				ft, err := domain.ParseFlatType(part)
				if err != nil {
					return Criteria{}, err
				}
				if !containsType(c.FlatTypes, ft) {
					c.FlatTypes = append(c.FlatTypes, ft)
				}
			}
		case KeyMinPrice:
			n, err := parsePrice(key, raw)
			if err != nil {
				return Criteria{}, err
			}
			c.MinPrice = &n
		case KeyMaxPrice:
			n, err := parsePrice(key, raw)
			if err != nil {
				return Criteria{}, err
			}
			c.MaxPrice = &n
		default:
			return Criteria{}, domain.NewValidation(fmt.Sprintf("unknown filter %q", key))
		}
	}
	if c.MinPrice != nil && c.MaxPrice != nil && *c.MinPrice > *c.MaxPrice {
		return Criteria{}, domain.NewValidation("min_price exceeds max_price")
	}
	return c, nil
}

func parsePrice(key, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidation(fmt.Sprintf("%s must be a non-negative integer, got %q", key, raw))
	}
	return n, nil
}

func anyFlat(p domain.Project, fn func(domain.Flat) bool) bool {
	for _, f := range p.Flats {
		if fn(f) {
			return true
		}
	}
	return false
}

func containsType(types []domain.FlatType, t domain.FlatType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
