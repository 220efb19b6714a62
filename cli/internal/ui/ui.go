package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/spf13/cast"

	"github.com/satishbabariya/wporm/model"
	"github.com/satishbabariya/wporm/telemetry"
)

var (
	// Out and ErrOut receive everything the CLI prints.
	Out    io.Writer = os.Stdout
	ErrOut io.Writer = os.Stderr

	PrimaryColor   = lipgloss.Color("#00D9FF")
	SuccessColor   = lipgloss.Color("#00FF88")
	WarningColor   = lipgloss.Color("#FFB800")
	ErrorColor     = lipgloss.Color("#FF4444")
	SecondaryColor = lipgloss.Color("#6C757D")

	TitleStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(SuccessColor).
			Bold(true)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	WarningStyle = lipgloss.NewStyle().
			Foreground(WarningColor).
			Bold(true)

	InfoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor)

	SecondaryStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor)

	keyColor = color.New(color.FgCyan, color.Bold)
)

// PrintHeader prints a boxed title
func PrintHeader(title, subtitle string) {
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(PrimaryColor).
		Padding(0, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			TitleStyle.Render(title),
			SecondaryStyle.Render(subtitle),
		))
	fmt.Fprintln(Out, box)
}

// PrintSuccess prints a success message
func PrintSuccess(format string, args ...any) {
	fmt.Fprintln(Out, SuccessStyle.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintError prints an error message
func PrintError(format string, args ...any) {
	fmt.Fprintln(ErrOut, ErrorStyle.Render("✗ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(format string, args ...any) {
	fmt.Fprintln(ErrOut, WarningStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(format string, args ...any) {
	fmt.Fprintln(Out, InfoStyle.Render("ℹ "+fmt.Sprintf(format, args...)))
}

// PrintTable prints a table using pterm
func PrintTable(headers []string, rows [][]string) error {
	data := pterm.TableData{headers}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(Out, out)
	return nil
}

// Cell renders a column value for display.
func Cell(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case *model.Instance:
		if x == nil {
			return "NULL"
		}
		return fmt.Sprintf("%s#%s", x.Entity().Name(), Cell(x.Key()))
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}

// InstanceRows flattens instances into table rows. The header is the union of
// hydrated columns in first-seen order, followed by one column per loaded
// relation holding a short summary.
func InstanceRows(instances []*model.Instance) ([]string, [][]string) {
	var headers, relations []string
	seen := make(map[string]bool)
	for _, inst := range instances {
		for _, c := range inst.Columns() {
			if !seen[c] {
				seen[c] = true
				headers = append(headers, c)
			}
		}
		for _, r := range inst.LoadedRelations() {
			if !seen["@"+r] {
				seen["@"+r] = true
				relations = append(relations, r)
			}
		}
	}

	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		row := make([]string, 0, len(headers)+len(relations))
		for _, h := range headers {
			row = append(row, Cell(inst.Value(h)))
		}
		for _, r := range relations {
			rel, _ := inst.Relation(r)
			row = append(row, summarize(rel))
		}
		rows = append(rows, row)
	}
	for _, r := range relations {
		headers = append(headers, r)
	}
	return headers, rows
}

func summarize(r model.Related) string {
	if r.Kind == model.HasOne {
		return Cell(r.One)
	}
	return fmt.Sprintf("[%d]", len(r.Many))
}

// PrintInstances prints instances as a table.
func PrintInstances(instances []*model.Instance) error {
	if len(instances) == 0 {
		PrintInfo("no rows")
		return nil
	}
	headers, rows := InstanceRows(instances)
	return PrintTable(headers, rows)
}

// PrintRecord prints one instance as colored key/value lines.
func PrintRecord(inst *model.Instance) {
	for _, c := range inst.Columns() {
		fmt.Fprintf(Out, "%s: %s\n", keyColor.Sprint(c), Cell(inst.Value(c)))
	}
	for _, r := range inst.LoadedRelations() {
		rel, _ := inst.Relation(r)
		fmt.Fprintf(Out, "%s: %s\n", keyColor.Sprint(r), summarize(rel))
	}
}

// ExplainMarkdown renders a statement and its arguments as markdown.
func ExplainMarkdown(sql string, args []any) string {
	var b strings.Builder
	b.WriteString("```sql\n")
	b.WriteString(sql)
	b.WriteString("\n```\n")
	if len(args) > 0 {
		b.WriteString("\n| # | value |\n|---|---|\n")
		for i, a := range args {
			fmt.Fprintf(&b, "| %d | `%s` |\n", i+1, Cell(a))
		}
	}
	return b.String()
}

// PrintMarkdown renders markdown content
func PrintMarkdown(content string) error {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return err
	}

	out, err := r.Render(content)
	if err != nil {
		return err
	}
	fmt.Fprint(Out, out)
	return nil
}

// StatsRows converts collector stats into table rows.
func StatsRows(stats []telemetry.OpStats) ([]string, [][]string) {
	headers := []string{"op", "count", "errors", "total", "mean", "max"}
	rows := make([][]string, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, []string{
			s.Op,
			cast.ToString(s.Count),
			cast.ToString(s.Errors),
			s.Total.String(),
			s.Mean().String(),
			s.Max.String(),
		})
	}
	return headers, rows
}

// PrintStats prints statement statistics to ErrOut so they never mix with
// result output.
func PrintStats(stats []telemetry.OpStats) error {
	if len(stats) == 0 {
		return nil
	}
	headers, rows := StatsRows(stats)
	data := append(pterm.TableData{headers}, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(ErrOut, SecondaryStyle.Render("statements"))
	fmt.Fprintln(ErrOut, out)
	return nil
}
