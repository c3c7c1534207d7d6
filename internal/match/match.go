// Package match partitions a batch of drafts into creations and updates.
package match

import "strings"

// Pair couples a draft with the existing entity it updates.
type Pair[D, E any] struct {
	Existing E
	Draft    D
}

// Partition is the result of splitting drafts by key.
type Partition[D any] struct {
	// Representatives holds the first draft of each key, in input order.
	Representatives []D

	// Duplicates holds later drafts whose key repeats an earlier one.
	Duplicates []D

	// Blank holds drafts without a usable key.
	Blank []D
}

// Split keeps the first occurrence of every key and reports later
// occurrences and blank keys separately. Input order is preserved.
func Split[D any](drafts []D, keyOf func(D) string) Partition[D] {
	var p Partition[D]
	seen := make(map[string]bool, len(drafts))
	for _, d := range drafts {
		key := keyOf(d)
		switch {
		case strings.TrimSpace(key) == "":
			p.Blank = append(p.Blank, d)
		case seen[key]:
			p.Duplicates = append(p.Duplicates, d)
		default:
			seen[key] = true
			p.Representatives = append(p.Representatives, d)
		}
	}
	return p
}

// Result is the outcome of matching drafts against existing entities.
type Result[D, E any] struct {
	ToCreate   []D
	ToUpdate   []Pair[D, E]
	Duplicates []D
	Blank      []D
}

// Match splits drafts and pairs each representative with its existing
// entity. Representatives without an existing entity are to be created.
func Match[D, E any](drafts []D, existingByKey map[string]E, keyOf func(D) string) Result[D, E] {
	p := Split(drafts, keyOf)
	res := Result[D, E]{Duplicates: p.Duplicates, Blank: p.Blank}
	for _, d := range p.Representatives {
		if e, ok := existingByKey[keyOf(d)]; ok {
			res.ToUpdate = append(res.ToUpdate, Pair[D, E]{Existing: e, Draft: d})
			continue
		}
		res.ToCreate = append(res.ToCreate, d)
	}
	return res
}
