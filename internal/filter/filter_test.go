package filter

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welfaredesk/internal/model"
)

func bedSpec() Spec[model.Bed] {
	return Spec[model.Bed]{
		SearchFields: []func(model.Bed) string{
			func(b model.Bed) string { return b.BedName },
			func(b model.Bed) string { return b.Notes },
		},
		Criteria: []Criterion[model.Bed]{
			{Key: "ward", Kind: Exact, Value: func(b model.Bed) string { return b.WardName }},
		},
	}
}

func TestFilterByWard(t *testing.T) {
	beds := []model.Bed{
		{ID: 1, BedName: "B1", WardName: "W1"},
		{ID: 2, BedName: "B2", WardName: "W2"},
	}
	got := Apply(beds, bedSpec(), State{Values: map[string]string{"ward": "W1"}})
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].ID)
}

func TestSearchAndCategoryAreConjunctive(t *testing.T) {
	spec := Spec[model.Item]{
		SearchFields: []func(model.Item) string{func(i model.Item) string { return i.Name }},
		Criteria: []Criterion[model.Item]{
			{Key: "category", Kind: Exact, Value: func(i model.Item) string { return i.Category }},
		},
	}
	state := State{Search: "widget", Values: map[string]string{"category": "C1"}}

	assert.True(t, Match(model.Item{Category: "C1", Name: "Blue Widget"}, spec, state))
	assert.False(t, Match(model.Item{Category: "C2", Name: "Blue Widget"}, spec, state))
	assert.False(t, Match(model.Item{Category: "C1", Name: "Gloves"}, spec, state))
}

func TestSearchMatchesAnyField(t *testing.T) {
	spec := bedSpec()
	beds := []model.Bed{
		{ID: 1, BedName: "North 1", Notes: ""},
		{ID: 2, BedName: "South 1", Notes: "near NORTH door"},
		{ID: 3, BedName: "South 2"},
	}
	got := Apply(beds, spec, State{Search: "north"})
	assert.Len(t, got, 2)
}

func TestCriterionKinds(t *testing.T) {
	machines := []model.Machine{
		{ID: 1, MachineName: "Fresenius A", Status: "active", NextMaintenance: "2026-11-01"},
		{ID: 2, MachineName: "Nipro B", Status: "maintenance", NextMaintenance: "2026-12-15"},
		{ID: 3, MachineName: "fresenius c", Status: "active", NextMaintenance: ""},
	}
	spec := Spec[model.Machine]{
		Criteria: []Criterion[model.Machine]{
			{Key: "name", Kind: Contains, Value: func(m model.Machine) string { return m.MachineName }},
			{Key: "status", Kind: Exact, Value: func(m model.Machine) string { return m.Status }},
			{Key: "next", Kind: DateEquals, Value: func(m model.Machine) string { return m.NextMaintenance }},
		},
	}

	assert.Len(t, Apply(machines, spec, State{Values: map[string]string{"name": "FRESENIUS"}}), 2)
	assert.Len(t, Apply(machines, spec, State{Values: map[string]string{"status": "Active"}}), 0, "exact is case sensitive")
	got := Apply(machines, spec, State{Values: map[string]string{"next": "2026-12-15"}})
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ID)
}

func TestDateEqualsIgnoresTimeOfDay(t *testing.T) {
	donations := []model.Donation{
		{ID: 1, Date: "2024-01-01T10:00"},
		{ID: 2, Date: "2024-01-01T23:59:00Z"},
		{ID: 3, Date: "2024-01-02T00:00:00+05:00"},
		{ID: 4, Date: "garbage"},
	}
	spec := Spec[model.Donation]{Criteria: []Criterion[model.Donation]{
		{Key: "date", Kind: DateEquals, Value: func(d model.Donation) string { return d.Date }},
	}}
	got := Apply(donations, spec, State{Values: map[string]string{"date": "2024-01-01"}})
	assert.Equal(t, []int64{1, 2}, idsOf(got))

	assert.Empty(t, Apply(donations, spec, State{Values: map[string]string{"date": "not-a-date"}}))
}

func TestRelatedCriterion(t *testing.T) {
	warnings := []model.Warning{
		{ID: 10, Machine: 1},
		{ID: 11, Machine: 2},
	}
	fixes := []model.WarningFix{
		{ID: 1, Warning: 10},
		{ID: 2, Warning: 11},
		{ID: 3, Warning: 10},
		{ID: 4, Warning: 99},
	}
	machineOfWarning := Index(warnings,
		func(w model.Warning) int64 { return w.ID },
		func(w model.Warning) string { return strconv.FormatInt(w.Machine, 10) },
	)
	spec := Spec[model.WarningFix]{Criteria: []Criterion[model.WarningFix]{
		{Key: "machine", Kind: Related, Value: RelatedValue(func(f model.WarningFix) int64 { return f.Warning }, machineOfWarning)},
	}}

	got := Apply(fixes, spec, State{Values: map[string]string{"machine": "1"}})
	assert.Equal(t, []int64{1, 3}, fixIDs(got))
}

func TestStateHelpers(t *testing.T) {
	var s State
	assert.False(t, s.Active())

	s2 := s.With("ward", "W1")
	assert.Nil(t, s.Values, "With does not mutate the receiver")
	assert.Equal(t, "W1", s2.Get("ward"))
	assert.True(t, s2.Active())
	assert.Equal(t, []string{"ward"}, s2.Keys())

	s3 := s2.With("ward", "  ")
	assert.False(t, s3.Active())
	assert.True(t, s3.WithSearch("x").Active())
	assert.False(t, s3.WithSearch("x").Clear().Active())
}

func TestDistinctOptions(t *testing.T) {
	items := []model.Item{{Category: "Fluids"}, {Category: ""}, {Category: "Consumables"}, {Category: "Fluids"}}
	opts := DistinctOptions(items, func(i model.Item) string { return i.Category })
	assert.Equal(t, []Option{{"Consumables", "Consumables"}, {"Fluids", "Fluids"}}, opts)
}

func idsOf(ds []model.Donation) []int64 {
	out := []int64{}
	for _, d := range ds {
		out = append(out, d.ID)
	}
	return out
}

func fixIDs(fs []model.WarningFix) []int64 {
	out := []int64{}
	for _, f := range fs {
		out = append(out, f.ID)
	}
	return out
}

// randomItems and randomState draw from small alphabets so that filters
// both match and miss.
func randomItems(rng *rand.Rand, n int) []model.Item {
	cats := []string{"C1", "C2", "C3"}
	names := []string{"Blue Widget", "red widget", "Gloves", "Saline", "Widget Pro"}
	units := []string{"pcs", "box", ""}
	items := make([]model.Item, n)
	for i := range items {
		items[i] = model.Item{
			ID:       int64(i + 1),
			Name:     names[rng.IntN(len(names))],
			Category: cats[rng.IntN(len(cats))],
			Unit:     units[rng.IntN(len(units))],
		}
	}
	return items
}

func itemSpec() Spec[model.Item] {
	return Spec[model.Item]{
		SearchFields: []func(model.Item) string{
			func(i model.Item) string { return i.Name },
			func(i model.Item) string { return i.Unit },
		},
		Criteria: []Criterion[model.Item]{
			{Key: "category", Kind: Exact, Value: func(i model.Item) string { return i.Category }},
			{Key: "unit", Kind: Contains, Value: func(i model.Item) string { return i.Unit }},
		},
	}
}

func randomState(rng *rand.Rand) State {
	pick := func(opts ...string) string { return opts[rng.IntN(len(opts))] }
	return State{
		Search: pick("", "widget", "WID", "gl", "zzz"),
		Values: map[string]string{
			"category": pick("", "C1", "C2"),
			"unit":     pick("", "p", "BOX"),
		},
	}
}

func TestFilterProperties(t *testing.T) {
	spec := itemSpec()
	for seed := uint64(1); seed <= 200; seed++ {
		rng := rand.New(rand.NewPCG(seed, 7))
		items := randomItems(rng, rng.IntN(20))
		state := randomState(rng)
		msg := fmt.Sprintf("seed %d state %+v", seed, state)

		once := Apply(items, spec, state)

		// Idempotent.
		assert.Equal(t, once, Apply(once, spec, state), msg)

		// Conjunctive: the result is exactly the intersection of applying
		// each constraint alone.
		var parts []State
		parts = append(parts, State{Search: state.Search})
		for k, v := range state.Values {
			parts = append(parts, State{Values: map[string]string{k: v}})
		}
		want := items
		for _, p := range parts {
			keep := map[int64]bool{}
			for _, it := range Apply(items, spec, p) {
				keep[it.ID] = true
			}
			var next []model.Item
			for _, it := range want {
				if keep[it.ID] {
					next = append(next, it)
				}
			}
			want = next
		}
		if want == nil {
			want = []model.Item{}
		}
		assert.Equal(t, want, once, msg)

		// The empty state passes everything.
		all := Apply(items, spec, State{})
		assert.Len(t, all, len(items), msg)
	}
}
