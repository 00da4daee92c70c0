// Package fixer proposes README additions for the documentation sections a
// repository is missing. It never removes content: additions are appended
// to the existing README, or a new README is created.
package fixer

import (
	"fmt"
	"strings"
)

// ProposedFix holds the complete set of proposed README additions for a
// repository.
type ProposedFix struct {
	Root        string     `json:"root"`
	ReadmePath  string     `json:"readme_path"`
	ProjectName string     `json:"project_name"`
	Additions   []Addition `json:"additions"`

	// ReadmeScore is the fraction of configured sections found now;
	// ProjectedScore is the fraction after the additions are applied.
	ReadmeScore    float64 `json:"readme_score"`
	ProjectedScore float64 `json:"projected_score"`
}

// Addition represents a single proposed README section.
type Addition struct {
	Section string `json:"section"` // e.g. "## Installation"
	Content string `json:"content"` // markdown body of the section
	Reason  string `json:"reason"`
	Source  string `json:"source"` // which rule produced this addition
}

// GenerateFix returns a ProposedFix with one addition per configured section
// the README lacks. Sections already present are skipped.
func GenerateFix(ctx *FixContext) (*ProposedFix, error) {
	if ctx == nil {
		return nil, fmt.Errorf("fix context is nil")
	}

	fix := &ProposedFix{
		Root:        ctx.Root,
		ReadmePath:  ctx.ReadmePath,
		ProjectName: ctx.ProjectName,
	}

	found := 0
	for _, section := range ctx.Sections {
		if ctx.hasSection(section) {
			found++
			continue
		}
		r, ok := sectionRules[strings.ToLower(section)]
		if !ok {
			r = ruleGenericSection
		}
		fix.Additions = append(fix.Additions, r(ctx, section))
	}
	fix.Additions = mergeAdditions(fix.Additions)

	if n := len(ctx.Sections); n > 0 {
		fix.ReadmeScore = float64(found) / float64(n)
		fix.ProjectedScore = 1
	}
	return fix, nil
}

// mergeAdditions combines additions that target the same section header into
// a single addition with concatenated content and reasons.
func mergeAdditions(additions []Addition) []Addition {
	sectionOrder := make([]string, 0)
	bySection := make(map[string][]Addition)

	for _, a := range additions {
		if _, exists := bySection[a.Section]; !exists {
			sectionOrder = append(sectionOrder, a.Section)
		}
		bySection[a.Section] = append(bySection[a.Section], a)
	}

	merged := make([]Addition, 0, len(sectionOrder))
	for _, section := range sectionOrder {
		group := bySection[section]
		if len(group) == 1 {
			merged = append(merged, group[0])
			continue
		}

		var contentParts, reasonParts, sources []string
		for _, a := range group {
			contentParts = append(contentParts, a.Content)
			reasonParts = append(reasonParts, a.Reason)
			sources = append(sources, a.Source)
		}
		merged = append(merged, Addition{
			Section: section,
			Content: strings.Join(contentParts, "\n"),
			Reason:  strings.Join(reasonParts, " "),
			Source:  strings.Join(sources, ", "),
		})
	}
	return merged
}

// RenderMarkdown produces the markdown text to append to the README.
// If the repository has no README, it includes a top-level header.
func RenderMarkdown(fix *ProposedFix, hasExisting bool, description string) string {
	var sb strings.Builder

	if !hasExisting {
		fmt.Fprintf(&sb, "# %s\n", fix.ProjectName)
		if description != "" {
			fmt.Fprintf(&sb, "\n%s\n", description)
		}
	}

	for _, a := range fix.Additions {
		sb.WriteString("\n")
		sb.WriteString(a.Section)
		sb.WriteString("\n\n")
		sb.WriteString(a.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}
