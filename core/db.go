package core

import "strings"

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

// OrderByClause builds an ORDER BY list from `orderings`, keeping only the fields found in `columns`
// ({field: column}). `fallback` is used when nothing is left.
func OrderByClause(orderings []DBOrdering, columns map[string]string, fallback ...DBOrdering) string {
	parts := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if col, ok := columns[ord.Field]; ok {
			parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(parts) == 0 {
		for _, ord := range fallback {
			if col, ok := columns[ord.Field]; ok {
				parts = append(parts, DBOrdering{Field: col, Ascending: ord.Ascending}.String())
			}
		}
	}
	return strings.Join(parts, ", ")
}
