package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/tartampluch/go-heatmap/internal/config"
	"github.com/tartampluch/go-heatmap/internal/heatmap"
	"github.com/tartampluch/go-heatmap/internal/i18n"
)

// Options is the parsed command line.
type Options struct {
	Src     string
	Range   string
	Color   string
	Port    string
	All     bool
	Serve   bool
	Debug   bool
	Version bool

	year yearValue
}

// Query returns the range request carried by the options.
func (o *Options) Query() heatmap.RangeQuery {
	return heatmap.RangeQuery{
		Range:   o.Range,
		Year:    o.year.year,
		HasYear: o.year.set,
	}
}

// yearValue remembers whether -y was given, so that year 0 stays expressible.
type yearValue struct {
	year int
	set  bool
}

func (y *yearValue) String() string {
	if y == nil || !y.set {
		return ""
	}
	return strconv.Itoa(y.year)
}

func (y *yearValue) Set(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("%s: %w", config.ErrYearValue, err)
	}
	y.year, y.set = v, true
	return nil
}

// Parse reads args (without the program name). Flags may come before or after
// the positional range. Usage goes to usage; -h yields flag.ErrHelp.
func Parse(args []string, usage io.Writer, tr *i18n.Translator) (*Options, error) {
	opts := &Options{}

	fs := flag.NewFlagSet(config.BinaryName, flag.ContinueOnError)
	fs.SetOutput(usage)
	fs.StringVar(&opts.Src, config.FlagSrc, "", config.FlagDescSrc)
	fs.StringVar(&opts.Src, config.FlagSrcShort, "", config.FlagDescSrc)
	fs.Var(&opts.year, config.FlagYear, config.FlagDescYear)
	fs.Var(&opts.year, config.FlagYearShort, config.FlagDescYear)
	fs.StringVar(&opts.Color, config.FlagColor, config.ColorAuto, config.FlagDescColor)
	fs.StringVar(&opts.Port, config.FlagPort, config.DefaultPort, config.FlagDescPort)
	fs.BoolVar(&opts.All, config.FlagAll, false, config.FlagDescAll)
	fs.BoolVar(&opts.Serve, config.FlagServe, false, config.FlagDescServe)
	fs.BoolVar(&opts.Debug, config.FlagDebug, false, config.FlagDescDebug)
	fs.BoolVar(&opts.Version, config.FlagVersion, false, config.FlagDescVersion)

	fs.Usage = func() {
		out := fs.Output()
		_, _ = fmt.Fprintln(out, tr.Msg(config.TKeyUsageHeader, config.AppName))
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintf(out, config.FormatUsageLine, config.BinaryName)
		fs.PrintDefaults()
		_, _ = io.WriteString(out, config.UsageRange)
	}

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, err
			}
			return nil, heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %w", config.ErrFlagParse, err))
		}
		if fs.NArg() == 0 {
			break
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}

	switch len(positional) {
	case 0:
	case 1:
		opts.Range = positional[0]
	default:
		return nil, heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %q", config.ErrTooManyArgs, positional[1:]))
	}

	if !slices.Contains([]string{config.ColorAuto, config.ColorAlways, config.ColorNever}, opts.Color) {
		return nil, heatmap.Wrap(heatmap.KindParse, fmt.Errorf("%s: %q", config.ErrUnknownColor, opts.Color))
	}
	if opts.All && (opts.Range != "" || opts.year.set) {
		return nil, heatmap.Wrap(heatmap.KindParse, errors.New(config.ErrAllConflict))
	}
	return opts, nil
}
