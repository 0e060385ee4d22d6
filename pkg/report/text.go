package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/Sumatoshi-tech/pkglister/pkg/importmodel"
)

const (
	kindThirdParty = "third-party"
	kindBuiltin    = "builtin"
	kindUnresolved = "unresolved"

	noValue = "-"
)

// WriteText renders a table of third-party and unresolved packages
// (builtins on request) followed by a one-line summary.
func WriteText(w io.Writer, project *importmodel.Project, opts Options) error {
	title := color.New(color.Bold)
	warn := color.New(color.FgYellow)

	if opts.NoColor {
		title.DisableColor()
		warn.DisableColor()
	}

	packages := project.Packages()
	byPackage := project.FilesByPackage()

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateRows = false

	header := table.Row{"PACKAGE", "DISTRIBUTION", "VERSION", "KIND"}
	if opts.ShowFiles {
		header = append(header, "FILES")
	}

	tbl.AppendHeader(header)

	rows := 0

	for _, pkg := range packages {
		if pkg.Builtin && !opts.ShowBuiltins {
			continue
		}

		row := table.Row{pkg.Name, orDash(pkg.DistributionName), orDash(pkg.Version), kindOf(pkg)}
		if opts.ShowFiles {
			row = append(row, strings.Join(byPackage[pkg.Name], "\n"))
		}

		tbl.AppendRow(row)

		rows++
	}

	if rows > 0 {
		_, err := fmt.Fprintln(w, tbl.Render())
		if err != nil {
			return fmt.Errorf("write text report: %w", err)
		}
	}

	_, err := title.Fprintln(w, summaryLine(project, packages))
	if err != nil {
		return fmt.Errorf("write text report: %w", err)
	}

	for _, skipped := range project.Skipped {
		_, err = warn.Fprintf(w, "skipped %s: %v\n", skipped.Path, skipped.Err)
		if err != nil {
			return fmt.Errorf("write text report: %w", err)
		}
	}

	return nil
}

func summaryLine(project *importmodel.Project, packages importmodel.PackageList) string {
	files := len(project.Files)

	line := fmt.Sprintf("%s %s scanned, %s %s (%s third-party, %s builtin, %s unresolved)",
		humanize.Comma(int64(files)), english.PluralWord(files, "file", ""),
		humanize.Comma(int64(len(packages))), english.PluralWord(len(packages), "package", ""),
		humanize.Comma(int64(len(packages.ThirdParty()))),
		humanize.Comma(int64(len(packages.Builtin()))),
		humanize.Comma(int64(len(packages.Unresolved()))))

	if skipped := len(project.Skipped); skipped > 0 {
		line += fmt.Sprintf(", %s skipped", english.Plural(skipped, "file", ""))
	}

	return line
}

func kindOf(pkg importmodel.Package) string {
	switch {
	case pkg.Builtin:
		return kindBuiltin
	case pkg.HasDistribution():
		return kindThirdParty
	default:
		return kindUnresolved
	}
}

func orDash(s string) string {
	if s == "" {
		return noValue
	}

	return s
}
