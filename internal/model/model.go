// Package model defines the domain types used across the application.
package model

import (
	"errors"
	"fmt"
	"time"
)

// Fissure is a time-bounded void fissure mission reported by the worldstate API.
// Fissures are never modified once decoded; the watcher only adds and removes them.
type Fissure struct {
	ID          string      `json:"id"`
	Activation  time.Time   `json:"activation"`
	Expiry      time.Time   `json:"expiry"`
	Node        string      `json:"node"`
	MissionType MissionType `json:"missionType"`
	Tier        Tier        `json:"tier"`
	Enemy       Faction     `json:"enemy"`
	IsStorm     bool        `json:"isStorm"`
	IsHard      bool        `json:"isHard"`
}

// String renders the fissure on one line, e.g. "SP Axi Survival on Mot (Void)".
func (f Fissure) String() string {
	prefix := ""
	if f.IsHard {
		prefix = "SP "
	}
	return fmt.Sprintf("%s%s %s on %s", prefix, f.Tier, f.MissionType, f.Node)
}

// TableHeaders returns the column titles matching TableRow.
func TableHeaders() []string {
	return []string{"SP", "Tier", "Mission Type", "Node (Region)", "Faction"}
}

// TableRow returns the display columns of the fissure.
func (f Fissure) TableRow() []string {
	sp := ""
	if f.IsHard {
		sp = "SP"
	}
	return []string{sp, f.Tier.String(), f.MissionType.String(), f.Node, f.Enemy.String()}
}

// Filters is the user-configured match criteria. A fissure matches when every
// dimension matches; an empty set matches nothing.
type Filters struct {
	Missions  []MissionType
	Tiers     []Tier
	Factions  []Faction
	VoidStorm ExclusivityFilter
}

// Clone returns a deep copy.
func (f Filters) Clone() Filters {
	return Filters{
		Missions:  append([]MissionType(nil), f.Missions...),
		Tiers:     append([]Tier(nil), f.Tiers...),
		Factions:  append([]Faction(nil), f.Factions...),
		VoidStorm: f.VoidStorm,
	}
}

// Settings holds everything the user can change at runtime.
type Settings struct {
	Filters     Filters
	RefreshRate time.Duration
	ExpiryLead  time.Duration
}

// Clone returns a deep copy.
func (s Settings) Clone() Settings {
	return Settings{
		Filters:     s.Filters.Clone(),
		RefreshRate: s.RefreshRate,
		ExpiryLead:  s.ExpiryLead,
	}
}

// Validate checks the numeric bounds of the settings.
func (s Settings) Validate() error {
	var errs []error
	if s.RefreshRate <= 0 {
		errs = append(errs, fmt.Errorf("refresh rate must be positive, got %s", s.RefreshRate))
	}
	if s.ExpiryLead < 0 {
		errs = append(errs, fmt.Errorf("expiry notification lead must not be negative, got %s", s.ExpiryLead))
	}
	return errors.Join(errs...)
}

// NotificationKind distinguishes the two notifications raised for fissures.
type NotificationKind string

// Supported notification kinds.
const (
	NotificationNew    NotificationKind = "new"
	NotificationExpiry NotificationKind = "expiry"
)

// Notification is a delivered (or failed) notification kept in history.
type Notification struct {
	ID        int64
	Kind      NotificationKind
	FissureID string
	Summary   string
	Body      string
	Delivered bool
	Error     string
	CreatedAt time.Time
}

// PollKind mirrors the outcome of one watcher cycle.
type PollKind string

// Supported poll outcomes.
const (
	PollFissures PollKind = "fissures"
	PollNoChange PollKind = "no_change"
	PollError    PollKind = "error"
)

// PollRecord is one watcher cycle kept in history.
type PollRecord struct {
	ID        int64
	Kind      PollKind
	Added     int
	Removed   int
	Held      int
	Matching  int
	Message   string
	CreatedAt time.Time
}
