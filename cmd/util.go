package cmd

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/darmiel/privaudit/internal/console"
	"github.com/darmiel/privaudit/internal/core"
	"github.com/darmiel/privaudit/internal/logging"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()

	greenCheck = color.GreenString("✔")
	redCross   = color.RedString("✖")
)

// BeQuietError is returned by commands which already reported the failure
// to the user. Execute only sets the exit code for it.
type BeQuietError struct{}

func (BeQuietError) Error() string {
	return "command failed"
}

// logError reports err together with the correlation ID of the failed request.
func logError(err error, correlation, msg string) error {
	ev := log.Error().Err(err)
	if correlation != "" {
		ev = ev.Str("correlation_id", correlation)
	}
	ev.Msgf("%s %s", redCross, msg)
	return BeQuietError{}
}

func logSuccess(format string, args ...any) {
	log.Info().Msgf("%s %s", greenCheck, fmt.Sprintf(format, args...))
}

func riskLabel(r core.RiskLevel) string {
	switch r {
	case core.RiskLow:
		return color.GreenString(string(r))
	case core.RiskMedium:
		return color.YellowString(string(r))
	case core.RiskHigh, core.RiskCritical:
		return color.RedString(string(r))
	}
	return string(r)
}

func applyTableFormat(t table.Writer) {
	s := table.StyleRounded
	s.Format.Header = text.FormatDefault
	t.SetStyle(s)
}

func newPrinter() *console.Printer {
	return console.NewPrinter(color.Output, viper.GetBool(logging.NoColorKey))
}

// parseKeyValues parses repeated "key=value" flags.
func parseKeyValues(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata '%s', expected key=value", pair)
		}
		out[k] = v
	}
	return out, nil
}

// truncate shortens s to at most maxLen runes.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return text.Trim(s, maxLen)
	}
	return text.Trim(s, maxLen-3) + "..."
}
