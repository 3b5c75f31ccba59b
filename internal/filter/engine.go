// Package filter implements the fissure matching engine.
package filter

import (
	"fissure_watcher/internal/model"
)

// Predicate reports whether a fissure satisfies one filter dimension.
type Predicate interface {
	Match(f model.Fissure) bool
}

// Dimension is a set-membership predicate over one fissure attribute.
// An empty set matches nothing.
type Dimension[T comparable] struct {
	attr    func(model.Fissure) T
	allowed map[T]struct{}
}

// NewDimension builds a Dimension that passes fissures whose attr value is one of values.
func NewDimension[T comparable](attr func(model.Fissure) T, values ...T) Dimension[T] {
	allowed := make(map[T]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return Dimension[T]{attr: attr, allowed: allowed}
}

// Match implements Predicate.
func (d Dimension[T]) Match(f model.Fissure) bool {
	_, ok := d.allowed[d.attr(f)]
	return ok
}

type stormPredicate model.ExclusivityFilter

func (s stormPredicate) Match(f model.Fissure) bool {
	return model.ExclusivityFilter(s).Allows(f.IsStorm)
}

// Engine is a compiled conjunction of predicates.
type Engine struct {
	preds []Predicate
}

// Compile turns user filters into an Engine.
func Compile(fs model.Filters) Engine {
	return Engine{preds: []Predicate{
		NewDimension(func(f model.Fissure) model.MissionType { return f.MissionType }, fs.Missions...),
		NewDimension(func(f model.Fissure) model.Tier { return f.Tier }, fs.Tiers...),
		NewDimension(func(f model.Fissure) model.Faction { return f.Enemy }, fs.Factions...),
		stormPredicate(fs.VoidStorm),
	}}
}

// Match reports whether f passes every predicate.
func (e Engine) Match(f model.Fissure) bool {
	for _, p := range e.preds {
		if !p.Match(f) {
			return false
		}
	}
	return true
}

// Apply returns the fissures that pass, preserving input order.
// The result never aliases the input slice.
func (e Engine) Apply(fissures []model.Fissure) []model.Fissure {
	matched := make([]model.Fissure, 0, len(fissures))
	for _, f := range fissures {
		if e.Match(f) {
			matched = append(matched, f)
		}
	}
	return matched
}

// Match checks whether a fissure passes the given filters.
func Match(f model.Fissure, fs model.Filters) bool {
	return Compile(fs).Match(f)
}

// Apply filters fissures with the given filters.
func Apply(fissures []model.Fissure, fs model.Filters) []model.Fissure {
	return Compile(fs).Apply(fissures)
}
