// Package group partitions pull requests by their prefixed labels and resolves
// the reviewers each group should have.
package group

import (
	"strings"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/types"
)

// keySeparator joins label names into a group key. GitHub label names cannot contain NUL.
const keySeparator = "\x00"

// Group is a set of pull requests carrying the same sequence of prefixed labels.
type Group struct {
	Labels []string
	Pulls  []*types.PullRequest
}

// ReviewGroup is a Group with at least one open pull request and a desired reviewer list.
type ReviewGroup struct {
	Group

	Reviewers []string
}

// Compute partitions pulls into groups keyed by the labels starting with prefix.
// Pull requests without such a label belong to no group. Groups are returned in the
// order their first member appears in pulls, and members keep their input order.
func Compute(pulls []*types.PullRequest, prefix string) []Group {
	index := make(map[string]int)
	var groups []Group
	for _, pr := range pulls {
		labels := matchingLabels(pr.Labels, prefix)
		if len(labels) == 0 {
			continue
		}

		key := strings.Join(labels, keySeparator)
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, Group{Labels: labels})
		}
		groups[i].Pulls = append(groups[i].Pulls, pr)
	}
	return groups
}

func matchingLabels(labels []string, prefix string) []string {
	var matched []string
	for _, name := range labels {
		if name == "" {
			continue
		}
		if strings.HasPrefix(name, prefix) {
			matched = append(matched, name)
		}
	}
	return matched
}

// Resolve keeps the groups that have an open pull request and at least one member with
// user reviewers, and attaches the reviewers of the oldest such member.
func Resolve(groups []Group) []ReviewGroup {
	var resolved []ReviewGroup
	for _, g := range groups {
		if !g.HasOpen() {
			continue
		}
		reviewers := g.OldestReviewers()
		if len(reviewers) == 0 {
			continue
		}
		resolved = append(resolved, ReviewGroup{Group: g, Reviewers: reviewers})
	}
	return resolved
}

// HasOpen reports whether any member pull request is open.
func (g *Group) HasOpen() bool {
	for _, pr := range g.Pulls {
		if pr.IsOpen() {
			return true
		}
	}
	return false
}

// OldestReviewers returns the user reviewers of the first member that has any.
// Team reviewers are not considered.
func (g *Group) OldestReviewers() []string {
	for _, pr := range g.Pulls {
		if users := pr.UserReviewers(); len(users) > 0 {
			return users
		}
	}
	return nil
}

// Numbers returns the member pull request numbers in order.
func (g *Group) Numbers() []int {
	numbers := make([]int, 0, len(g.Pulls))
	for _, pr := range g.Pulls {
		numbers = append(numbers, pr.Number)
	}
	return numbers
}
