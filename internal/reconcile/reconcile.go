// Package reconcile diffs the held fissure collection against a fresh fetch.
package reconcile

import "fissure_watcher/internal/model"

// Result is the outcome of one reconciliation.
type Result struct {
	// Fissures is the new held collection: survivors in their previous order
	// followed by Added in fetch order.
	Fissures []model.Fissure
	Added    []model.Fissure
	Removed  []model.Fissure
}

// Counts returns the number of added and removed fissures.
func (r Result) Counts() (added, removed int) {
	return len(r.Added), len(r.Removed)
}

// Changed reports whether anything was added or removed.
func (r Result) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// Reconcile matches fissures by ID only. A fissure present in both old and
// current keeps its old value even if the remote changed its fields.
// An empty current removes everything; callers cannot tell a truncated
// response from a real expiry of every fissure.
// Duplicate IDs in current are collapsed to the first occurrence.
func Reconcile(old, current []model.Fissure) Result {
	currentIDs := make(map[string]struct{}, len(current))
	for _, f := range current {
		currentIDs[f.ID] = struct{}{}
	}

	res := Result{Fissures: make([]model.Fissure, 0, len(old)+len(current))}
	held := make(map[string]struct{}, len(old))
	for _, f := range old {
		if _, ok := currentIDs[f.ID]; !ok {
			res.Removed = append(res.Removed, f)
			continue
		}
		held[f.ID] = struct{}{}
		res.Fissures = append(res.Fissures, f)
	}

	for _, f := range current {
		if _, ok := held[f.ID]; ok {
			continue
		}
		held[f.ID] = struct{}{}
		res.Added = append(res.Added, f)
		res.Fissures = append(res.Fissures, f)
	}
	return res
}
