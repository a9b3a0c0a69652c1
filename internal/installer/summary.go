package installer

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/olekukonko/tablewriter"

	"sectools/internal/config"
)

// Kinds shown in the KIND column.
const (
	kindApt  = "apt"
	kindPip  = "pip"
	kindRepo = "source"
)

// summaryRow is one configured tool as shown in the summary.
type summaryRow struct {
	Name     string
	Kind     string
	Status   string
	Location string
}

// summaryRows lists exactly the configured tool set, in configuration order.
// A nil report yields rows without status, as used by the list command.
func summaryRows(cfg config.Config, report *Report) []summaryRow {
	rows := make([]summaryRow, 0, len(cfg.AptPackages)+len(cfg.PipTools)+len(cfg.Repositories))
	for _, pkg := range cfg.AptPackages {
		rows = append(rows, summaryRow{Name: pkg, Kind: kindApt, Status: itemStatus(report, StageApt, pkg), Location: "-"})
	}
	for _, tool := range cfg.PipTools {
		rows = append(rows, summaryRow{Name: tool, Kind: kindPip, Status: itemStatus(report, StagePip, tool), Location: "-"})
	}
	for _, repo := range cfg.Repositories {
		rows = append(rows, summaryRow{
			Name:     repo.Name,
			Kind:     kindRepo,
			Status:   repoStatus(report, repo.Name),
			Location: repo.InstallPath,
		})
	}
	return rows
}

func itemStatus(report *Report, stage Stage, name string) string {
	if report == nil {
		return ""
	}
	o, ok := report.Lookup(stage, name)
	if !ok {
		return "not run"
	}
	return string(o.Status)
}

// repoStatus folds the fetch, dependency and link outcomes of a repository tool.
func repoStatus(report *Report, name string) string {
	if report == nil {
		return ""
	}
	fetch, ok := report.Lookup(StageFetch, name)
	if !ok {
		return "not run"
	}
	if fetch.Status != StatusOK {
		return string(fetch.Status)
	}

	link, _ := report.Lookup(StageLink, name)
	switch link.Status {
	case StatusFailed:
		return "link failed"
	case StatusSkipped:
		return "no link"
	}
	if deps, ok := report.Lookup(StageDeps, name); ok && deps.Status == StatusFailed {
		return "deps failed"
	}
	return string(StatusOK)
}

// WriteToolTable prints the configured tool set without run results.
func WriteToolTable(w io.Writer, cfg config.Config) {
	table := newTable(w, []string{"Tool", "Kind", "Location"})
	for _, row := range summaryRows(cfg, nil) {
		table.Append([]string{row.Name, row.Kind, row.Location})
	}
	table.Render()
}

// WriteSummary prints the final summary: every configured tool with its result,
// the install locations of source tools and how to start the linked ones.
func WriteSummary(w io.Writer, cfg config.Config, report *Report) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\n", rule)
	if failed := report.Failed(); len(failed) > 0 {
		fmt.Fprintf(w, "Installation finished with %d failed step(s)\n", len(failed))
	} else {
		fmt.Fprintln(w, "Installation complete!")
	}
	fmt.Fprintf(w, "%s\n\n", rule)

	table := newTable(w, []string{"Tool", "Kind", "Status", "Location"})
	for _, row := range summaryRows(cfg, report) {
		table.Append([]string{row.Name, row.Kind, row.Status, row.Location})
	}
	table.Render()

	var linked []string
	for _, repo := range cfg.Repositories {
		if o, ok := report.Lookup(StageLink, repo.Name); ok && o.Status == StatusOK {
			linked = append(linked, repo.Name)
		}
	}
	if len(linked) > 0 {
		fmt.Fprintf(w, "\nTools are linked into %s, run them by name:\n", filepath.Clean(cfg.BinDir))
		for _, name := range linked {
			fmt.Fprintf(w, "  $ %s\n", name)
		}
	}
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetBorder(false)
	return table
}
