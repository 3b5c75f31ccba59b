package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"fissure_watcher/internal/model"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if err := s.Validate(); err != nil {
		t.Fatalf("default settings invalid: %v", err)
	}
	if diff := cmp.Diff(60*time.Second, s.RefreshRate); diff != "" {
		t.Errorf("refresh rate mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(180*time.Second, s.ExpiryLead); diff != "" {
		t.Errorf("lead mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.AllTiers(), s.Filters.Tiers); diff != "" {
		t.Errorf("tiers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(model.Exclude, s.Filters.VoidStorm); diff != "" {
		t.Errorf("storm mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSettings(t *testing.T) {
	const valid = `
mission_filter = ["Survival", "Mobile Defense", "SanctuaryOnslaught"]
tier_filter = ["Axi"]
faction_filter = ["Corpus", "Grineer"]
void_storm_filter = "Exclusive"
refresh_rate = 30
time_before_expiry_notification = 0
`
	tests := []struct {
		name       string
		content    *string
		wantStatus LoadStatus
		wantErr    bool
		want       model.Settings
	}{
		{
			name:       "missing file is created",
			content:    nil,
			wantStatus: SettingsCreated,
			want:       DefaultSettings(),
		},
		{
			name:       "valid file",
			content:    ptr(valid),
			wantStatus: SettingsLoaded,
			want: model.Settings{
				Filters: model.Filters{
					Missions:  []model.MissionType{model.MissionSurvival, model.MissionMobileDefense, model.MissionSanctuaryOnslaught},
					Tiers:     []model.Tier{model.TierAxi},
					Factions:  []model.Faction{model.FactionCorpus, model.FactionGrineer},
					VoidStorm: model.Exclusive,
				},
				RefreshRate: 30 * time.Second,
			},
		},
		{
			name:       "syntax error falls back to defaults",
			content:    ptr("tier_filter = [\"Axi\""),
			wantStatus: SettingsDefaulted,
			wantErr:    true,
			want:       DefaultSettings(),
		},
		{
			name:       "unknown tier falls back to defaults",
			content:    ptr(`tier_filter = ["Platinum"]` + "\nvoid_storm_filter = \"Include\"\nrefresh_rate = 10\n"),
			wantStatus: SettingsDefaulted,
			wantErr:    true,
			want:       DefaultSettings(),
		},
		{
			name:       "zero refresh rate falls back to defaults",
			content:    ptr("void_storm_filter = \"Include\"\nrefresh_rate = 0\n"),
			wantStatus: SettingsDefaulted,
			wantErr:    true,
			want:       DefaultSettings(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.toml")
			if tt.content != nil {
				if err := os.WriteFile(path, []byte(*tt.content), 0o600); err != nil {
					t.Fatalf("write settings: %v", err)
				}
			}

			got, status, err := LoadSettings(path)
			if diff := cmp.Diff(tt.wantErr, err != nil); diff != "" {
				t.Errorf("error mismatch (-want +got):\n%s\nerr: %v", diff, err)
			}
			if diff := cmp.Diff(tt.wantStatus, status); diff != "" {
				t.Errorf("status mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("settings mismatch (-want +got):\n%s", diff)
			}
			if tt.content == nil {
				if _, err := os.Stat(path); err != nil {
					t.Errorf("default file not created: %v", err)
				}
			}
		})
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	want := model.Settings{
		Filters: model.Filters{
			Missions:  []model.MissionType{model.MissionInfestedSalvage},
			Tiers:     []model.Tier{model.TierLith, model.TierRequiem},
			Factions:  []model.Faction{model.FactionNarmer},
			VoidStorm: model.Include,
		},
		RefreshRate: 45 * time.Second,
		ExpiryLead:  5 * time.Minute,
	}

	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, status, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if status != SettingsLoaded {
		t.Errorf("status = %v, want loaded", status)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestSettingsUpdate(t *testing.T) {
	s := NewSettings(model.Settings{RefreshRate: time.Minute, ExpiryLead: time.Minute})

	got, err := s.Update(func(ms *model.Settings) {
		ms.Filters.Tiers = append(ms.Filters.Tiers, model.TierAxi)
		ms.RefreshRate = 2 * time.Minute
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff([]model.Tier{model.TierAxi}, got.Filters.Tiers); diff != "" {
		t.Errorf("tiers mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(2*time.Minute, s.RefreshRate()); diff != "" {
		t.Errorf("refresh mismatch (-want +got):\n%s", diff)
	}

	_, err = s.Update(func(ms *model.Settings) { ms.RefreshRate = 0 })
	if err == nil {
		t.Fatal("expected validation error")
	}
	if diff := cmp.Diff(2*time.Minute, s.RefreshRate()); diff != "" {
		t.Errorf("invalid update was committed (-want +got):\n%s", diff)
	}
}

func TestSettingsFiltersReturnsCopy(t *testing.T) {
	s := NewSettings(model.Settings{
		Filters:     model.Filters{Tiers: []model.Tier{model.TierAxi}},
		RefreshRate: time.Minute,
	})
	f := s.Filters()
	f.Tiers[0] = model.TierLith
	if diff := cmp.Diff([]model.Tier{model.TierAxi}, s.Filters().Tiers); diff != "" {
		t.Errorf("shared state modified through copy (-want +got):\n%s", diff)
	}
}

func TestSettingsConcurrentAccess(t *testing.T) {
	s := NewSettings(model.Settings{RefreshRate: time.Second})
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = s.Update(func(ms *model.Settings) {
				ms.ExpiryLead = time.Duration(i) * time.Second
			})
		}()
		go func() {
			defer wg.Done()
			_ = s.ExpiryLead()
			_ = s.Filters()
		}()
	}
	wg.Wait()
}

func ptr(s string) *string { return &s }
