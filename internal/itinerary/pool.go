package itinerary

import "github.com/neexbeast/kira-trips/internal/activity"

// usedNames tracks activity names already scheduled in one composition.
type usedNames map[string]struct{}

func (u usedNames) take(name string) bool {
	if _, ok := u[name]; ok {
		return false
	}
	u[name] = struct{}{}
	return true
}

// pool hands out a category's candidates front to back. Candidates whose
// name was already scheduled from any pool are skipped; an exhausted pool
// keeps reporting false.
type pool struct {
	items []activity.Activity
	pos   int
	used  usedNames
}

func newPool(items []activity.Activity, used usedNames) *pool {
	return &pool{items: items, used: used}
}

func (p *pool) next() (activity.Activity, bool) {
	for p.pos < len(p.items) {
		a := p.items[p.pos]
		p.pos++
		if p.used.take(a.Name) {
			return a, true
		}
	}
	return activity.Activity{}, false
}
