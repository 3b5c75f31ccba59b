package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"fissure_watcher/internal/model"
)

func allFilters(storm model.ExclusivityFilter) model.Filters {
	return model.Filters{
		Missions:  model.AllMissionTypes(),
		Tiers:     model.AllTiers(),
		Factions:  model.AllFactions(),
		VoidStorm: storm,
	}
}

func TestMatch(t *testing.T) {
	axiSurvival := model.Fissure{
		ID:          "1",
		MissionType: model.MissionSurvival,
		Tier:        model.TierAxi,
		Enemy:       model.FactionGrineer,
	}
	storm := axiSurvival
	storm.IsStorm = true

	tests := []struct {
		name    string
		fissure model.Fissure
		filters model.Filters
		want    bool
	}{
		{
			name:    "everything allowed passes",
			fissure: axiSurvival,
			filters: allFilters(model.Include),
			want:    true,
		},
		{
			name:    "zero filters exclude everything",
			fissure: axiSurvival,
			filters: model.Filters{},
			want:    false,
		},
		{
			name:    "empty mission set excludes",
			fissure: axiSurvival,
			filters: model.Filters{
				Tiers:     model.AllTiers(),
				Factions:  model.AllFactions(),
				VoidStorm: model.Include,
			},
			want: false,
		},
		{
			name:    "mission in set",
			fissure: axiSurvival,
			filters: model.Filters{
				Missions:  []model.MissionType{model.MissionCapture, model.MissionSurvival},
				Tiers:     model.AllTiers(),
				Factions:  model.AllFactions(),
				VoidStorm: model.Include,
			},
			want: true,
		},
		{
			name:    "tier not in set",
			fissure: axiSurvival,
			filters: model.Filters{
				Missions:  model.AllMissionTypes(),
				Tiers:     []model.Tier{model.TierLith, model.TierMeso},
				Factions:  model.AllFactions(),
				VoidStorm: model.Include,
			},
			want: false,
		},
		{
			name:    "faction not in set",
			fissure: axiSurvival,
			filters: model.Filters{
				Missions:  model.AllMissionTypes(),
				Tiers:     model.AllTiers(),
				Factions:  []model.Faction{model.FactionCorpus},
				VoidStorm: model.Include,
			},
			want: false,
		},
		{
			name:    "exclude drops storm",
			fissure: storm,
			filters: allFilters(model.Exclude),
			want:    false,
		},
		{
			name:    "exclude keeps non-storm",
			fissure: axiSurvival,
			filters: allFilters(model.Exclude),
			want:    true,
		},
		{
			name:    "exclusive keeps storm",
			fissure: storm,
			filters: allFilters(model.Exclusive),
			want:    true,
		},
		{
			name:    "exclusive drops non-storm",
			fissure: axiSurvival,
			filters: allFilters(model.Exclusive),
			want:    false,
		},
		{
			name:    "steel path is not filtered",
			fissure: model.Fissure{MissionType: model.MissionSurvival, Tier: model.TierAxi, Enemy: model.FactionGrineer, IsHard: true},
			filters: allFilters(model.Exclude),
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.fissure, tt.filters)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Match() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyPreservesOrder(t *testing.T) {
	fissures := []model.Fissure{
		{ID: "a", Tier: model.TierAxi, MissionType: model.MissionCapture, Enemy: model.FactionCorpus},
		{ID: "b", Tier: model.TierLith, MissionType: model.MissionCapture, Enemy: model.FactionCorpus},
		{ID: "c", Tier: model.TierNeo, MissionType: model.MissionCapture, Enemy: model.FactionCorpus},
		{ID: "d", Tier: model.TierAxi, MissionType: model.MissionSpy, Enemy: model.FactionCorpus},
	}
	fs := model.Filters{
		Missions:  []model.MissionType{model.MissionCapture, model.MissionSpy},
		Tiers:     []model.Tier{model.TierAxi, model.TierNeo},
		Factions:  []model.Faction{model.FactionCorpus},
		VoidStorm: model.Exclude,
	}

	var ids []string
	for _, f := range Apply(fissures, fs) {
		ids = append(ids, f.ID)
	}
	if diff := cmp.Diff([]string{"a", "c", "d"}, ids); diff != "" {
		t.Errorf("ids mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	in := []model.Fissure{{ID: "a", Tier: model.TierAxi}}
	out := Compile(allFilters(model.Include)).Apply(in)
	out[0].ID = "changed"
	if in[0].ID != "a" {
		t.Error("Apply result aliases input")
	}
}

func TestDimensionEmptySet(t *testing.T) {
	d := NewDimension(func(f model.Fissure) model.Tier { return f.Tier })
	if d.Match(model.Fissure{Tier: model.TierLith}) {
		t.Error("empty dimension matched")
	}
}
