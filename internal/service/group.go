package service

import "github.com/msomdec/clip/internal/domain"

// ScrapGroup is one type bucket of a grouped scrap list.
type ScrapGroup struct {
	Type   domain.ScrapType
	Scraps []domain.Scrap
}

// GroupByType buckets scraps by type, keeping each bucket in input order.
// Unknown or empty types land in domain.ScrapTypeDefault.
func GroupByType(scraps []domain.Scrap) map[domain.ScrapType][]domain.Scrap {
	groups := make(map[domain.ScrapType][]domain.Scrap)
	for _, s := range scraps {
		t := groupKey(s.Type)
		groups[t] = append(groups[t], s)
	}
	return groups
}

// OrderedGroups is GroupByType with the buckets ordered by the first
// appearance of their type in scraps.
func OrderedGroups(scraps []domain.Scrap) []ScrapGroup {
	var groups []ScrapGroup
	index := make(map[domain.ScrapType]int)
	for _, s := range scraps {
		t := groupKey(s.Type)
		i, ok := index[t]
		if !ok {
			i = len(groups)
			index[t] = i
			groups = append(groups, ScrapGroup{Type: t})
		}
		groups[i].Scraps = append(groups[i].Scraps, s)
	}
	return groups
}

func groupKey(t domain.ScrapType) domain.ScrapType {
	if t.Valid() {
		return t
	}
	return domain.ScrapTypeDefault
}
