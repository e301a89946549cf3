package console

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/syncengine"
)

var _ core.Observer = (*Printer)(nil)

var categoryIcons = map[core.Category]string{
	core.CategoryProof:        "🔐",
	core.CategoryInference:    "🧠",
	core.CategoryVerification: "⛓",
	core.CategorySystem:       "⚙",
}

// Printer narrates audit entries in a human readable form.
// It can be registered as an observer on the recorder.
type Printer struct {
	w  io.Writer
	mu sync.Mutex

	bold, faint         *color.Color
	green, yellow, red  *color.Color
	blue, cyan, magenta *color.Color
}

func NewPrinter(w io.Writer, noColor bool) *Printer {
	p := &Printer{
		w:       w,
		bold:    color.New(color.Bold),
		faint:   color.New(color.Faint),
		green:   color.New(color.FgGreen),
		yellow:  color.New(color.FgYellow),
		red:     color.New(color.FgRed),
		blue:    color.New(color.FgBlue),
		cyan:    color.New(color.FgCyan),
		magenta: color.New(color.FgMagenta),
	}
	if noColor {
		for _, c := range []*color.Color{p.bold, p.faint, p.green, p.yellow, p.red, p.blue, p.cyan, p.magenta} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Printer) OnAppend(entry core.AuditEntry) {
	p.PrintLine(entry)
}

// PrintLine writes a one-line summary of the entry.
func (p *Printer) PrintLine(entry core.AuditEntry) {
	line := fmt.Sprintf("%s %s %s %s %s",
		p.faint.Sprint(entry.Timestamp.Local().Format("15:04:05.000")),
		p.categoryIcon(entry.Category),
		p.categoryColor(entry.Category).Sprintf("%-12s", entry.Category),
		entry.Message,
		p.faint.Sprintf("[%s | risk %s%s]", p.status(entry.Status), p.risk(entry.RiskLevel), p.duration(entry.DurationMs)),
	)

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintln(p.w, line)
}

// PrintEntry writes every field of the entry.
func (p *Printer) PrintEntry(entry core.AuditEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()

	printKV := func(key string, val any) {
		_, _ = fmt.Fprintf(p.w, "  %-24s %v\n", p.faint.Sprint(key)+":", val)
	}

	_, _ = fmt.Fprintln(p.w, p.bold.Sprint("\n── Audit Entry ──"))
	printKV("ID", entry.ID)
	printKV("Time", entry.Timestamp.Local().Format(time.RFC3339Nano))
	printKV("Session", entry.SessionID)
	printKV("Category", fmt.Sprintf("%s %s", p.categoryIcon(entry.Category), p.categoryColor(entry.Category).Sprint(entry.Category)))
	printKV("Message", entry.Message)
	printKV("Status", p.status(entry.Status))
	printKV("Risk", p.risk(entry.RiskLevel))
	if entry.DurationMs != nil {
		printKV("Duration", fmt.Sprintf("%dms", *entry.DurationMs))
	} else {
		printKV("Duration", p.faint.Sprint("(not reported)"))
	}

	printKV("Metadata", "")
	if len(entry.Metadata) == 0 {
		_, _ = fmt.Fprintf(p.w, "       %s\n", p.faint.Sprint("(none)"))
	}
	keys := make([]string, 0, len(entry.Metadata))
	for k := range entry.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(p.w, "       %-16s %s\n", p.faint.Sprint(k)+":", entry.Metadata[k])
	}
	_, _ = fmt.Fprintln(p.w)
}

// PrintStats renders the aggregate counts as tables.
func (p *Printer) PrintStats(stats core.AuditStats) {
	p.mu.Lock()
	defer p.mu.Unlock()

	summary := p.newTable()
	summary.AppendRow(table.Row{"Total records", p.bold.Sprint(stats.TotalRecords)})
	summary.AppendRow(table.Row{"First record", p.formatTime(stats.FirstRecord)})
	summary.AppendRow(table.Row{"Last record", p.formatTime(stats.LastRecord)})
	summary.Render()

	counts := p.newTable()
	counts.AppendHeader(table.Row{"Dimension", "Value", "Count"})
	for _, c := range core.Categories {
		if n := stats.ByCategory[c]; n > 0 {
			counts.AppendRow(table.Row{"category", p.categoryColor(c).Sprint(c), n})
		}
	}
	counts.AppendSeparator()
	for _, s := range core.Statuses {
		if n := stats.ByStatus[s]; n > 0 {
			counts.AppendRow(table.Row{"status", p.status(s), n})
		}
	}
	counts.AppendSeparator()
	for _, r := range core.RiskLevels {
		if n := stats.ByRiskLevel[r]; n > 0 {
			counts.AppendRow(table.Row{"risk", p.risk(r), n})
		}
	}
	counts.Render()
}

// PrintSyncReport writes the summary of a finished sync cycle.
func (p *Printer) PrintSyncReport(report syncengine.CycleReport) {
	result := p.green.Sprint("ok")
	if report.Failed > 0 || report.Rejected > 0 {
		result = p.red.Sprint("degraded")
	}

	risks := ""
	for _, r := range core.RiskLevels {
		if n := report.ByRisk[r]; n > 0 {
			risks += fmt.Sprintf(" %s=%d", r, n)
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.w, "%s sync cycle %s %s: %d recorded, %d rejected, %d failed in %s %s\n",
		p.cyan.Sprint("↻"),
		p.bold.Sprint(report.Cycle),
		result,
		report.Recorded,
		report.Rejected,
		report.Failed,
		report.Elapsed().Round(time.Millisecond),
		p.faint.Sprintf("(reported %dms,%s)", report.ReportedMs, risks),
	)
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
	return t
}

func (p *Printer) formatTime(t *time.Time) string {
	if t == nil {
		return p.faint.Sprint("(none)")
	}
	return t.Local().Format(time.RFC3339)
}

func (p *Printer) categoryIcon(c core.Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return icon
	}
	return "•"
}

func (p *Printer) categoryColor(c core.Category) *color.Color {
	switch c {
	case core.CategoryProof:
		return p.magenta
	case core.CategoryInference:
		return p.blue
	case core.CategoryVerification:
		return p.cyan
	default:
		return p.faint
	}
}

func (p *Printer) risk(r core.RiskLevel) string {
	switch r {
	case core.RiskLow:
		return p.green.Sprint(r)
	case core.RiskMedium:
		return p.yellow.Sprint(r)
	case core.RiskHigh:
		return p.red.Sprint(r)
	case core.RiskCritical:
		return p.bold.Sprint(p.red.Sprint(r))
	}
	return string(r)
}

func (p *Printer) status(s core.Status) string {
	switch s {
	case core.StatusVerified, core.StatusExported:
		return p.green.Sprint(s)
	case core.StatusPending:
		return p.yellow.Sprint(s)
	case core.StatusFailed:
		return p.red.Sprint(s)
	}
	return string(s)
}

func (p *Printer) duration(d *int64) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf(" | %dms", *d)
}
