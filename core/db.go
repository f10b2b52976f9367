package core

import "strings"

// DBOrdering orders query results by a storage field (snake_case).
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// Asc and Desc are shorthands used by services for their default orderings.
func Asc(field string) DBOrdering  { return DBOrdering{Field: field, Ascending: true} }
func Desc(field string) DBOrdering { return DBOrdering{Field: field} }

// ParseOrdering parses "field,-other" into orderings; a leading "-" means descending.
// mapField translates each requested field to a storage field, returning false to drop it.
func ParseOrdering(val string, mapField func(string) (string, bool)) []DBOrdering {
	var orderings []DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		if mapField != nil {
			var ok bool
			if field, ok = mapField(field); !ok {
				continue
			}
		}
		orderings = append(orderings, DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}
