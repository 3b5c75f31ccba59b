package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"fissure_watcher/internal/model"
)

//go:embed default-settings.toml
var defaultSettingsFile []byte

// Settings is the shared, concurrently readable watcher configuration.
// Every accessor takes the lock only for the duration of the copy.
type Settings struct {
	mu sync.RWMutex
	s  model.Settings
}

// NewSettings wraps s for shared use.
func NewSettings(s model.Settings) *Settings {
	return &Settings{s: s.Clone()}
}

// RefreshRate returns the poll interval.
func (s *Settings) RefreshRate() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s.RefreshRate
}

// ExpiryLead returns how long before expiry a reminder is sent.
func (s *Settings) ExpiryLead() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s.ExpiryLead
}

// Filters returns a copy of the current filters.
func (s *Settings) Filters() model.Filters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s.Filters.Clone()
}

// Snapshot returns a copy of all settings.
func (s *Settings) Snapshot() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.s.Clone()
}

// Replace swaps in ns if it is valid.
func (s *Settings) Replace(ns model.Settings) error {
	if err := ns.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.s = ns.Clone()
	return nil
}

// Update applies fn to a copy of the settings and commits it if the result is valid.
func (s *Settings) Update(fn func(*model.Settings)) (model.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.s.Clone()
	fn(&next)
	if err := next.Validate(); err != nil {
		return s.s.Clone(), err
	}
	s.s = next
	return next.Clone(), nil
}

// LoadStatus tells how LoadSettings obtained its result.
type LoadStatus int

// Possible load outcomes.
const (
	SettingsLoaded LoadStatus = iota
	SettingsCreated
	SettingsDefaulted
)

func (l LoadStatus) String() string {
	switch l {
	case SettingsLoaded:
		return "loaded"
	case SettingsCreated:
		return "created"
	default:
		return "defaulted"
	}
}

type fileSettings struct {
	MissionFilter                []string `mapstructure:"mission_filter"`
	TierFilter                   []string `mapstructure:"tier_filter"`
	FactionFilter                []string `mapstructure:"faction_filter"`
	VoidStormFilter              string   `mapstructure:"void_storm_filter"`
	RefreshRate                  int64    `mapstructure:"refresh_rate"`
	TimeBeforeExpiryNotification int64    `mapstructure:"time_before_expiry_notification"`
}

// DefaultSettings returns the built-in settings.
func DefaultSettings() model.Settings {
	v := viper.New()
	v.SetConfigType("toml")
	if err := v.ReadConfig(bytes.NewReader(defaultSettingsFile)); err != nil {
		panic(fmt.Sprintf("parse default settings: %v", err))
	}
	s, err := decodeSettings(v)
	if err != nil {
		panic(fmt.Sprintf("decode default settings: %v", err))
	}
	return s
}

// LoadSettings reads the settings file at path.
// A missing file is created from the defaults. An unreadable or invalid file
// yields the defaults together with the error that caused the fallback.
func LoadSettings(path string) (model.Settings, LoadStatus, error) {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		if err := os.WriteFile(path, defaultSettingsFile, 0o644); err != nil { //nolint:gosec // user-editable settings file
			return DefaultSettings(), SettingsDefaulted, fmt.Errorf("create default settings: %w", err)
		}
		return DefaultSettings(), SettingsCreated, nil
	}

	s, err := readSettings(path)
	if err != nil {
		return DefaultSettings(), SettingsDefaulted, err
	}
	return s, SettingsLoaded, nil
}

// SaveSettings writes s to path. The path extension selects the format.
func SaveSettings(path string, s model.Settings) error {
	v := viper.New()
	raw := encodeSettings(s)
	v.Set("mission_filter", raw.MissionFilter)
	v.Set("tier_filter", raw.TierFilter)
	v.Set("faction_filter", raw.FactionFilter)
	v.Set("void_storm_filter", raw.VoidStormFilter)
	v.Set("refresh_rate", raw.RefreshRate)
	v.Set("time_before_expiry_notification", raw.TimeBeforeExpiryNotification)
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// WatchSettings reloads the file at path into settings whenever it changes.
// Invalid edits are logged and ignored.
func WatchSettings(path string, settings *Settings, log *slog.Logger) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		s, err := readSettings(path)
		if err != nil {
			log.Warn("reload settings", "path", path, "error", err)
			return
		}
		if err := settings.Replace(s); err != nil {
			log.Warn("apply reloaded settings", "path", path, "error", err)
			return
		}
		log.Info("settings reloaded", "path", path)
	})
	v.WatchConfig()
}

func readSettings(path string) (model.Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return model.Settings{}, fmt.Errorf("read settings %s: %w", path, err)
	}
	s, err := decodeSettings(v)
	if err != nil {
		return model.Settings{}, fmt.Errorf("decode settings %s: %w", path, err)
	}
	return s, nil
}

func decodeSettings(v *viper.Viper) (model.Settings, error) {
	var raw fileSettings
	if err := v.Unmarshal(&raw); err != nil {
		return model.Settings{}, err
	}

	var errs []error
	var s model.Settings
	for _, name := range raw.MissionFilter {
		m, err := model.ParseMissionType(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Filters.Missions = append(s.Filters.Missions, m)
	}
	for _, name := range raw.TierFilter {
		t, err := model.ParseTier(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Filters.Tiers = append(s.Filters.Tiers, t)
	}
	for _, name := range raw.FactionFilter {
		f, err := model.ParseFaction(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.Filters.Factions = append(s.Filters.Factions, f)
	}
	storm, err := model.ParseExclusivityFilter(raw.VoidStormFilter)
	if err != nil {
		errs = append(errs, err)
	}
	s.Filters.VoidStorm = storm
	s.RefreshRate = time.Duration(raw.RefreshRate) * time.Second
	s.ExpiryLead = time.Duration(raw.TimeBeforeExpiryNotification) * time.Second
	if err := s.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return model.Settings{}, errors.Join(errs...)
	}
	return s, nil
}

func encodeSettings(s model.Settings) fileSettings {
	raw := fileSettings{
		MissionFilter:                make([]string, 0, len(s.Filters.Missions)),
		TierFilter:                   make([]string, 0, len(s.Filters.Tiers)),
		FactionFilter:                make([]string, 0, len(s.Filters.Factions)),
		VoidStormFilter:              s.Filters.VoidStorm.String(),
		RefreshRate:                  int64(s.RefreshRate / time.Second),
		TimeBeforeExpiryNotification: int64(s.ExpiryLead / time.Second),
	}
	for _, m := range s.Filters.Missions {
		raw.MissionFilter = append(raw.MissionFilter, m.String())
	}
	for _, t := range s.Filters.Tiers {
		raw.TierFilter = append(raw.TierFilter, t.String())
	}
	for _, f := range s.Filters.Factions {
		raw.FactionFilter = append(raw.FactionFilter, f.String())
	}
	return raw
}
