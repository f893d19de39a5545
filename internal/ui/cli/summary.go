package cli

import (
	"fmt"
	"strings"
	"time"

	coreapp "xref/internal/core/app"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// maxListed caps each finding list in the summary; the rest is counted.
const maxListed = 10

func renderSummary(report *coreapp.Report, verbose bool) string {
	if report == nil {
		return ""
	}
	var b strings.Builder

	headline := fmt.Sprintf("✓ %d pages written (%d types, %d packages) in %s",
		report.FilesEmitted, report.TypesIndexed, report.PackagesIndexed, report.Duration().Round(time.Millisecond))
	if report.Failed() {
		b.WriteString(warnStyle.Render(headline))
	} else {
		b.WriteString(successStyle.Render(headline))
	}
	b.WriteString("\n")
	b.WriteString(statusStyle.Render("  " + report.Destination))
	b.WriteString("\n")

	if len(report.Failures) > 0 {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(fmt.Sprintf("Skipped files (%d)", len(report.Failures))))
		b.WriteString("\n")
		for i, f := range report.Failures {
			if i == maxListed {
				fmt.Fprintf(&b, "  … %d more\n", len(report.Failures)-maxListed)
				break
			}
			fmt.Fprintf(&b, "  %s [%s] %v\n", f.Path, f.Stage, f.Err)
		}
	}

	if len(report.Duplicates) > 0 {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render(fmt.Sprintf("Duplicate types (%d)", len(report.Duplicates))))
		b.WriteString("\n")
		for i, d := range report.Duplicates {
			if i == maxListed {
				fmt.Fprintf(&b, "  … %d more\n", len(report.Duplicates)-maxListed)
				break
			}
			fmt.Fprintf(&b, "  %s in %s (kept %s)\n", d.QualifiedName, d.IgnoredSource, d.KeptSource)
		}
	}

	if len(report.Ambiguous) > 0 {
		fmt.Fprintf(&b, "\n%s\n", warnStyle.Render(fmt.Sprintf("Ambiguous references left unlinked: %d", len(report.Ambiguous))))
		if verbose {
			for _, ref := range report.Ambiguous {
				fmt.Fprintf(&b, "  %s:%d %s (%s)\n", ref.SourcePath, ref.Line, ref.Name, strings.Join(ref.Candidates, ", "))
			}
		}
	}

	if len(report.UnresolvedImports) > 0 {
		fmt.Fprintf(&b, "\n%s\n", statusStyle.Render(fmt.Sprintf("Imports outside the tree: %d", len(report.UnresolvedImports))))
		if verbose {
			for _, imp := range report.UnresolvedImports {
				fmt.Fprintf(&b, "  %s:%d %s\n", imp.SourcePath, imp.Line, imp.Import)
			}
		}
	}

	for _, w := range report.Warnings {
		fmt.Fprintf(&b, "%s %s\n", warnStyle.Render("warning:"), w)
	}
	return b.String()
}
