package production

import "lumpiah/internal/core/id"

// dedupByProduct keeps one plan per product. Input order of first appearance is kept.
//
// Preference: most advanced realization status, then the earliest created plan,
// then the lowest plan id.
func dedupByProduct(plans []Plan) []Plan {
	best := make(map[id.ID]int, len(plans))
	order := make([]id.ID, 0, len(plans))

	for i := range plans {
		pid := plans[i].ProductID
		j, seen := best[pid]
		if !seen {
			best[pid] = i
			order = append(order, pid)
			continue
		}
		if preferred(&plans[i], &plans[j]) {
			best[pid] = i
		}
	}

	out := make([]Plan, 0, len(order))
	for _, pid := range order {
		out = append(out, plans[best[pid]])
	}
	return out
}

func preferred(a, b *Plan) bool {
	if ra, rb := a.Status().rank(), b.Status().rank(); ra != rb {
		return ra > rb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return id.Compare(a.ID, b.ID) < 0
}
