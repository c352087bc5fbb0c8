package reporting

import (
	"fmt"
	"strings"
	"time"
)

// RenderCycleMarkdown renders a cycle report as Markdown string.
func RenderCycleMarkdown(r *CycleReport) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# %s cycle %s\n\n", titleKind(r.Kind), r.CycleID))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Started: %s | Finished: %s | Duration: %s\n\n",
		r.StartedAt.Format(time.RFC3339), r.FinishedAt.Format(time.RFC3339), r.FinishedAt.Sub(r.StartedAt)))
	if r.Mode != "" {
		sb.WriteString(fmt.Sprintf("Scoring mode: %s\n\n", r.Mode))
	}

	// Coverage
	sb.WriteString("## Coverage\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Registry countries | %d |\n", r.RegistrySize))
	sb.WriteString(fmt.Sprintf("| Records | %d |\n", r.Records))
	sb.WriteString(fmt.Sprintf("| Coverage | %.1f%% |\n", r.Coverage()*100))
	sb.WriteString(fmt.Sprintf("| Unknown keys | %d |\n", len(r.Unknown)))
	sb.WriteString(fmt.Sprintf("| Errors | %d |\n", len(r.Errors)))
	sb.WriteString("\n")

	// Phases
	sb.WriteString("## Phases\n\n")
	if len(r.Phases) > 0 {
		sb.WriteString("| Phase | Status | Rows | Attempts | Duration | Error |\n")
		sb.WriteString("|-------|--------|------|----------|----------|-------|\n")
		for _, p := range r.Phases {
			sb.WriteString(fmt.Sprintf("| %s | %s | %d | %d | %s | %s |\n",
				p.Name, p.Status, p.Rows, p.Attempts, p.Duration.Round(time.Millisecond), escapeCell(p.Err)))
		}
	} else {
		sb.WriteString("No phases executed.\n")
	}
	sb.WriteString("\n")

	// Scores
	sb.WriteString("## Score Distribution\n\n")
	if r.Scores.Count > 0 {
		sb.WriteString("| Count | Mean | Median | P10 | P90 | Min | Max | Stddev |\n")
		sb.WriteString("|-------|------|--------|-----|-----|-----|-----|--------|\n")
		s := r.Scores
		sb.WriteString(fmt.Sprintf("| %d | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f | %.2f |\n",
			s.Count, s.Mean, s.Median, s.P10, s.P90, s.Min, s.Max, s.Stddev))
	} else {
		sb.WriteString("No scores available.\n")
	}
	sb.WriteString("\n")

	// Top countries
	if len(r.TopRecords) > 0 {
		sb.WriteString("## Top Countries\n\n")
		sb.WriteString("| # | Country | Name | Score | Detail |\n")
		sb.WriteString("|---|---------|------|-------|--------|\n")
		for i, row := range r.TopRecords {
			sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %s |\n",
				i+1, row.CountryCode3, escapeCell(row.CountryName), row.Score, escapeCell(row.Detail)))
		}
		sb.WriteString("\n")
	}

	writeList(&sb, "Unknown Keys", r.Unknown)
	writeList(&sb, "Diagnostics", r.Diagnostics)
	writeList(&sb, "Errors", r.Errors)

	return sb.String()
}

func writeList(sb *strings.Builder, title string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(fmt.Sprintf("## %s\n\n", title))
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("- %s\n", item))
	}
	sb.WriteString("\n")
}

func titleKind(kind string) string {
	if kind == "" {
		return "Unknown"
	}
	return strings.ToUpper(kind[:1]) + kind[1:]
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}
