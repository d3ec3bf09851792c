package group

import (
	"reflect"
	"testing"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

func pull(number int, state string, labels []string, users ...string) *types.PullRequest {
	pr := &types.PullRequest{Number: number, State: state, Labels: labels}
	for _, u := range users {
		pr.RequestedReviewers = append(pr.RequestedReviewers, types.Reviewer{Login: u, Kind: types.ReviewerUser})
	}
	return pr
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name   string
		pulls  []*types.PullRequest
		prefix string
		want   [][]int // member numbers per group
		labels [][]string
	}{
		{
			name:   "no pulls",
			prefix: "team/",
		},
		{
			name: "pulls without prefixed labels join no group",
			pulls: []*types.PullRequest{
				pull(1, types.StateOpen, nil),
				pull(2, types.StateOpen, []string{"bug", "area/api"}),
			},
			prefix: "team/",
		},
		{
			name: "same label sequence shares a group",
			pulls: []*types.PullRequest{
				pull(1, types.StateOpen, []string{"team/x"}),
				pull(2, types.StateClosed, []string{"bug", "team/x"}),
				pull(3, types.StateOpen, []string{"team/x", "wip"}),
			},
			prefix: "team/",
			want:   [][]int{{1, 2, 3}},
			labels: [][]string{{"team/x"}},
		},
		{
			name: "different order or subset makes a different group",
			pulls: []*types.PullRequest{
				pull(1, types.StateOpen, []string{"team/x", "team/y"}),
				pull(2, types.StateOpen, []string{"team/y", "team/x"}),
				pull(3, types.StateOpen, []string{"team/x"}),
				pull(4, types.StateOpen, []string{"team/x", "team/y"}),
			},
			prefix: "team/",
			want:   [][]int{{1, 4}, {2}, {3}},
			labels: [][]string{{"team/x", "team/y"}, {"team/y", "team/x"}, {"team/x"}},
		},
		{
			name: "groups are emitted in first-seen order",
			pulls: []*types.PullRequest{
				pull(5, types.StateOpen, []string{"team/b"}),
				pull(6, types.StateOpen, []string{"team/a"}),
				pull(7, types.StateOpen, []string{"team/b"}),
			},
			prefix: "team/",
			want:   [][]int{{5, 7}, {6}},
			labels: [][]string{{"team/b"}, {"team/a"}},
		},
		{
			name: "malformed empty label names are skipped",
			pulls: []*types.PullRequest{
				pull(1, types.StateOpen, []string{"", "team/x"}),
				pull(2, types.StateOpen, []string{"team/x"}),
			},
			prefix: "team/",
			want:   [][]int{{1, 2}},
			labels: [][]string{{"team/x"}},
		},
		{
			name: "separator-like characters do not collide",
			pulls: []*types.PullRequest{
				pull(1, types.StateOpen, []string{"team/a,team/b"}),
				pull(2, types.StateOpen, []string{"team/a", "team/b"}),
			},
			prefix: "team/",
			want:   [][]int{{1}, {2}},
			labels: [][]string{{"team/a,team/b"}, {"team/a", "team/b"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := Compute(tt.pulls, tt.prefix)
			if len(groups) != len(tt.want) {
				t.Fatalf("Compute() returned %d groups, want %d", len(groups), len(tt.want))
			}
			for i, g := range groups {
				if got := g.Numbers(); !reflect.DeepEqual(got, tt.want[i]) {
					t.Errorf("group %d members = %v, want %v", i, got, tt.want[i])
				}
				if !reflect.DeepEqual(g.Labels, tt.labels[i]) {
					t.Errorf("group %d labels = %v, want %v", i, g.Labels, tt.labels[i])
				}
			}
		})
	}
}

func TestCompute_MembersCarryGroupLabels(t *testing.T) {
	pulls := []*types.PullRequest{
		pull(1, types.StateOpen, []string{"team/x", "other"}),
		pull(2, types.StateOpen, []string{"team/y"}),
		pull(3, types.StateOpen, []string{"misc", "team/x"}),
	}

	for _, g := range Compute(pulls, "team/") {
		for _, pr := range g.Pulls {
			if got := matchingLabels(pr.Labels, "team/"); !reflect.DeepEqual(got, g.Labels) {
				t.Errorf("#%d prefixed labels = %v, group labels = %v", pr.Number, got, g.Labels)
			}
		}
	}
}

func TestResolve(t *testing.T) {
	team := types.Reviewer{Login: "platform", Kind: types.ReviewerTeam}
	bot := types.Reviewer{Login: "renovate[bot]", Kind: types.ReviewerBot}

	withTeam := pull(10, types.StateOpen, []string{"team/z"})
	withTeam.RequestedReviewers = []types.Reviewer{team, bot}

	tests := []struct {
		name      string
		groups    []Group
		wantCount int
		want      []string
	}{
		{
			name: "no open pull request",
			groups: []Group{{
				Labels: []string{"team/y"},
				Pulls:  []*types.PullRequest{pull(3, types.StateClosed, []string{"team/y"}, "alice")},
			}},
		},
		{
			name: "no user reviewers anywhere",
			groups: []Group{{
				Labels: []string{"team/z"},
				Pulls:  []*types.PullRequest{withTeam, pull(11, types.StateOpen, []string{"team/z"})},
			}},
		},
		{
			name: "oldest reviewers win",
			groups: []Group{{
				Labels: []string{"team/x"},
				Pulls: []*types.PullRequest{
					pull(1, types.StateOpen, []string{"team/x"}),
					pull(2, types.StateOpen, []string{"team/x"}, "alice", "bob"),
					pull(3, types.StateOpen, []string{"team/x"}, "carol"),
				},
			}},
			wantCount: 1,
			want:      []string{"alice", "bob"},
		},
		{
			name: "closed member can supply reviewers",
			groups: []Group{{
				Labels: []string{"team/x"},
				Pulls: []*types.PullRequest{
					pull(1, types.StateClosed, []string{"team/x"}, "dave"),
					pull(2, types.StateOpen, []string{"team/x"}, "erin"),
				},
			}},
			wantCount: 1,
			want:      []string{"dave"},
		},
		{
			name: "team reviewers are skipped in favour of later users",
			groups: []Group{{
				Labels: []string{"team/z"},
				Pulls:  []*types.PullRequest{withTeam, pull(12, types.StateOpen, []string{"team/z"}, "frank")},
			}},
			wantCount: 1,
			want:      []string{"frank"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.groups)
			if len(got) != tt.wantCount {
				t.Fatalf("Resolve() returned %d review groups, want %d", len(got), tt.wantCount)
			}
			if tt.wantCount == 0 {
				return
			}
			if !reflect.DeepEqual(got[0].Reviewers, tt.want) {
				t.Errorf("reviewers = %v, want %v", got[0].Reviewers, tt.want)
			}
		})
	}
}

func TestResolve_PreservesOrder(t *testing.T) {
	pulls := []*types.PullRequest{
		pull(1, types.StateOpen, []string{"team/b"}, "bob"),
		pull(2, types.StateClosed, []string{"team/gone"}, "zed"),
		pull(3, types.StateOpen, []string{"team/a"}, "amy"),
	}

	got := Resolve(Compute(pulls, "team/"))
	if len(got) != 2 {
		t.Fatalf("expected 2 review groups, got %d", len(got))
	}
	if got[0].Labels[0] != "team/b" || got[1].Labels[0] != "team/a" {
		t.Errorf("unexpected order: %v, %v", got[0].Labels, got[1].Labels)
	}
}

func TestScenario_SharedLabelAliceReviews(t *testing.T) {
	pulls := []*types.PullRequest{
		pull(1, types.StateOpen, []string{"team/x"}),
		pull(2, types.StateOpen, []string{"team/x"}, "alice"),
	}

	got := Resolve(Compute(pulls, "team/"))
	if len(got) != 1 {
		t.Fatalf("expected 1 review group, got %d", len(got))
	}
	if !reflect.DeepEqual(got[0].Labels, []string{"team/x"}) {
		t.Errorf("labels = %v", got[0].Labels)
	}
	if !reflect.DeepEqual(got[0].Numbers(), []int{1, 2}) {
		t.Errorf("pulls = %v", got[0].Numbers())
	}
	if !reflect.DeepEqual(got[0].Reviewers, []string{"alice"}) {
		t.Errorf("reviewers = %v", got[0].Reviewers)
	}
}
