// Package format renders review groups as markdown for the dashboard issue and pull request comments.
package format

import (
	"fmt"
	"strings"

	"github.com/codeGROOVE-dev/group-reviewers/pkg/group"
)

const dateLayout = "2006-01-02"

// Dashboard renders the body of the dashboard issue for all review groups.
func Dashboard(groups []group.ReviewGroup) string {
	var b strings.Builder
	b.WriteString("This issue is automatically generated by group-reviewers.\n\n")
	b.WriteString("## Pull request groups\n")

	if len(groups) == 0 {
		b.WriteString("\nNothing.\n")
		return b.String()
	}

	for _, g := range groups {
		fmt.Fprintf(&b, "\n### %s\n", strings.Join(g.Labels, ", "))
		fmt.Fprintf(&b, "These pull requests are reviewed by %s.\n\n", Mentions(g.Reviewers))
		for _, pr := range g.Pulls {
			fmt.Fprintf(&b, "- #%d\n", pr.Number)
		}
	}
	return b.String()
}

// Comment renders the comment posted on each member of a review group.
func Comment(g group.ReviewGroup) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Related pull requests (%s)\n", strings.Join(g.Labels, ", "))
	fmt.Fprintf(&b, "Reviewers: %s\n\n", Mentions(g.Reviewers))
	b.WriteString("| Pull request | Merged |\n")
	b.WriteString("|---|---|\n")
	for _, pr := range g.Pulls {
		merged := "-"
		if pr.IsMerged() {
			merged = pr.MergedAt.UTC().Format(dateLayout)
		}
		fmt.Fprintf(&b, "| #%d | %s |\n", pr.Number, merged)
	}
	return b.String()
}

// Mentions renders usernames as space-separated @mentions.
func Mentions(users []string) string {
	mentions := make([]string, 0, len(users))
	for _, u := range users {
		mentions = append(mentions, "@"+u)
	}
	return strings.Join(mentions, " ")
}
