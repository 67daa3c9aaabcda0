package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func provider(id string) Provider {
	return Provider{ID: id, Name: "Provider " + id, NPI: "npi-" + id}
}

func eligible(category ServiceCategoryID, providers ...Provider) Eligibility {
	return Eligibility{ID: "se-" + string(category), ServiceCategoryID: category, Status: EligibilityEligible, Providers: providers}
}

func ineligible(category ServiceCategoryID, messages ...string) Eligibility {
	return Eligibility{ID: "se-" + string(category), ServiceCategoryID: category, Status: EligibilityIneligible, Messages: messages}
}

func TestMergeProvidersUnion(t *testing.T) {
	t.Parallel()

	got := MergeProviders([]Eligibility{
		eligible("c1", provider("p1"), provider("p2")),
		eligible("c2", provider("p2"), provider("p3")),
	}, MergeUnion)

	assert.Equal(t, []ResolvedProvider{
		{Provider: provider("p1"), ServiceCategoryIDs: []ServiceCategoryID{"c1"}},
		{Provider: provider("p2"), ServiceCategoryIDs: []ServiceCategoryID{"c1", "c2"}},
		{Provider: provider("p3"), ServiceCategoryIDs: []ServiceCategoryID{"c2"}},
	}, got)
}

func TestMergeProvidersIntersection(t *testing.T) {
	t.Parallel()

	got := MergeProviders([]Eligibility{
		eligible("c1", provider("p1"), provider("p2")),
		eligible("c2", provider("p2"), provider("p3")),
	}, MergeIntersection)

	assert.Equal(t, []ResolvedProvider{
		{Provider: provider("p2"), ServiceCategoryIDs: []ServiceCategoryID{"c1", "c2"}},
	}, got)
}

func TestMergeProvidersEdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		results  []Eligibility
		strategy MergeStrategy
		want     []ResolvedProvider
	}{
		{
			name:     "empty input union",
			strategy: MergeUnion,
			want:     []ResolvedProvider{},
		},
		{
			name:     "empty input intersection",
			strategy: MergeIntersection,
			want:     []ResolvedProvider{},
		},
		{
			name: "union ignores ineligible results",
			results: []Eligibility{
				eligible("c1", provider("p1")),
				{ServiceCategoryID: "c2", Status: EligibilityIneligible, Providers: []Provider{provider("p9")}},
			},
			strategy: MergeUnion,
			want:     []ResolvedProvider{{Provider: provider("p1"), ServiceCategoryIDs: []ServiceCategoryID{"c1"}}},
		},
		{
			name: "intersection with one ineligible result is empty",
			results: []Eligibility{
				eligible("c1", provider("p1")),
				eligible("c2", provider("p1")),
				ineligible("c3"),
			},
			strategy: MergeIntersection,
			want:     []ResolvedProvider{},
		},
		{
			name: "intersection with a pending result is empty",
			results: []Eligibility{
				eligible("c1", provider("p1")),
				{ServiceCategoryID: "c2", Status: EligibilityPending},
			},
			strategy: MergeIntersection,
			want:     []ResolvedProvider{},
		},
		{
			name: "duplicate provider within one result",
			results: []Eligibility{
				eligible("c1", provider("p1"), provider("p1")),
				eligible("c2", provider("p2")),
			},
			strategy: MergeIntersection,
			want:     []ResolvedProvider{},
		},
		{
			name: "duplicate provider within one result union",
			results: []Eligibility{
				eligible("c1", provider("p1"), provider("p1")),
			},
			strategy: MergeUnion,
			want:     []ResolvedProvider{{Provider: provider("p1"), ServiceCategoryIDs: []ServiceCategoryID{"c1"}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MergeProviders(tt.results, tt.strategy))
		})
	}
}

func TestIsIneligible(t *testing.T) {
	t.Parallel()

	mixed := []Eligibility{eligible("c1", provider("p1")), ineligible("c2")}
	allIneligible := []Eligibility{ineligible("c1"), ineligible("c2")}

	assert.False(t, IsIneligible(mixed, MergeUnion))
	assert.True(t, IsIneligible(mixed, MergeIntersection))
	assert.True(t, IsIneligible(allIneligible, MergeUnion))
	assert.True(t, IsIneligible(allIneligible, MergeIntersection))
	assert.False(t, IsIneligible(nil, MergeUnion))
}
