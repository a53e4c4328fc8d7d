package services

import "github.com/act-community/steward/modules/contacts/domain/types"

// DefaultRules is the stock handoff catalog between the five ACT
// projects. Priority 5 marks sensitive or revenue-critical handoffs;
// catalog order is evaluation order.
func DefaultRules() []OpportunityRule {
	return []OpportunityRule{
		{
			SourceProject: "the-harvest",
			TargetProject: "act-farm",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:conservation", "interest:regenerative-agriculture", "interest:research"},
			},
			Reason:   "Interest in conservation/regenerative agriculture - ACT Farm workshops and residencies",
			Priority: 4,
		},
		{
			SourceProject: "the-harvest",
			TargetProject: "act-farm",
			Conditions: types.Predicate{
				Fields: []types.FieldCondition{{Field: "volunteer_hours_total", Op: types.CompareGte, Value: 50}},
			},
			Reason:   "Active volunteer (50+ hours) - Invite to ACT Farm volunteer days",
			Priority: 3,
		},
		{
			SourceProject: "act-farm",
			TargetProject: "empathy-ledger",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:storytelling", "interest:writing", "interest:art", "category:artist"},
			},
			Reason:   "Storytelling/creative practice - Empathy Ledger storyteller platform",
			Priority: 4,
		},
		{
			SourceProject: "act-farm",
			TargetProject: "empathy-ledger",
			Conditions: types.Predicate{
				Fields: []types.FieldCondition{{Field: "residency_completed", Op: types.CompareEq, Value: true}},
			},
			Reason:   "Completed residency - Share your story on Empathy Ledger",
			Priority: 3,
		},
		{
			SourceProject: "empathy-ledger",
			TargetProject: "justicehub",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:justice", "interest:incarceration", "category:formerly-incarcerated"},
			},
			Reason:   "Justice/incarceration experience - JusticeHub CONTAINED campaign",
			Priority: 5,
		},
		{
			SourceProject: "empathy-ledger",
			TargetProject: "justicehub",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:advocacy", "interest:policy-reform"},
			},
			Reason:   "Advocacy interest - JusticeHub campaigns and events",
			Priority: 3,
		},
		{
			SourceProject: "justicehub",
			TargetProject: "the-harvest",
			Conditions: types.Predicate{
				AnyTags: []string{"needs:community-support", "category:family"},
			},
			Reason:   "Family needing community support - The Harvest programs and connections",
			Priority: 5,
		},
		{
			SourceProject: "justicehub",
			TargetProject: "the-harvest",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:volunteering", "interest:community"},
			},
			Reason:   "Interest in community involvement - The Harvest volunteer program",
			Priority: 3,
		},
		{
			SourceProject: "the-harvest",
			TargetProject: "empathy-ledger",
			Conditions: types.Predicate{
				Fields: []types.FieldCondition{{Field: "stories_shared_informally", Op: types.CompareGte, Value: 3}},
			},
			Reason:   "Active storyteller (shared stories at events) - Empathy Ledger platform",
			Priority: 4,
		},
		{
			SourceProject: "empathy-ledger",
			TargetProject: "justicehub",
			Conditions: types.Predicate{
				AnyTags: []string{"category:organization", "lead:saas", "category:university"},
			},
			Reason:   "Organization partner - Multi-project opportunity (Empathy Ledger + JusticeHub)",
			Priority: 5,
		},
		{
			SourceProject: "justicehub",
			TargetProject: "empathy-ledger",
			Conditions: types.Predicate{
				AnyTags: []string{"category:organization", "category:government", "category:nonprofit"},
			},
			Reason:   "Organization interested in justice - Also explore Empathy Ledger for storytelling",
			Priority: 4,
		},
		{
			SourceProject: "act-farm",
			TargetProject: "the-harvest",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:food-systems", "interest:community", "interest:csa"},
			},
			Reason:   "Interest in food systems - The Harvest CSA and community programs",
			Priority: 3,
		},
		{
			SourceProject: "goods",
			TargetProject: "the-harvest",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:community", "interest:indigenous-culture"},
			},
			Reason:   "Interest in Indigenous products - Connect to The Harvest cultural programs",
			Priority: 3,
		},
		{
			SourceProject: "goods",
			TargetProject: "act-farm",
			Conditions: types.Predicate{
				AnyTags: []string{"interest:regenerative-agriculture", "interest:native-ingredients"},
			},
			Reason:   "Interest in native ingredients - ACT Farm regenerative agriculture workshops",
			Priority: 3,
		},
	}
}
