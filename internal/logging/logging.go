package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	LevelKey   = "log.level"
	FormatKey  = "log.format"
	NoColorKey = "log.no_color"
)

type Options struct {
	Level   string
	Format  string // "console" or "json"
	NoColor bool
	Output  io.Writer
}

// OptionsFromViper reads the logging options bound by the root command.
func OptionsFromViper() *Options {
	return &Options{
		Level:   viper.GetString(LevelKey),
		Format:  viper.GetString(FormatKey),
		NoColor: viper.GetBool(NoColorKey),
	}
}

// InitDefault installs a console logger at info level. It is used until the
// flags are parsed.
func InitDefault() {
	Init(&Options{Level: "info", Format: "console"})
}

// Init configures the global zerolog logger. A nil opts reads the options from viper.
func Init(opts *Options) {
	if opts == nil {
		opts = OptionsFromViper()
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if strings.EqualFold(opts.Format, "json") {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        out,
			NoColor:    opts.NoColor,
			TimeFormat: "15:04:05",
		}).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &log.Logger
}
