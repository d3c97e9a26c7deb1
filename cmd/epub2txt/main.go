package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"github.com/yuanying/epub2txt/internal/config"
	"github.com/yuanying/epub2txt/internal/converter"
	"github.com/yuanying/epub2txt/internal/render"
	"github.com/yuanying/epub2txt/internal/sandbox"
)

const (
	exitFatal       = 1
	exitDegraded    = 2
	exitInterrupted = 130
)

var validLogLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

// cliOptions is the validated result of flags, config file and environment.
type cliOptions struct {
	Inputs []string

	Meta             bool
	NoText           bool
	Calibre          bool
	SectionSeparator string
	Width            int
	ASCII            bool

	UseUnzip    bool
	SandboxBase string
	Strict      bool
	Logger      *slog.Logger
}

// exitError carries a process exit status. Its message has already been
// reported by the time it is returned.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	return e.msg
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "epub2txt [flags] FILE...",
		Short: "Extract plain text from EPUB files",
		Long: `epub2txt unpacks EPUB ebooks into a temporary directory and writes the
text of their content documents, in reading order, to standard output.

Several files, or glob patterns such as 'books/**/*.epub', may be given;
they are converted one after another.

` + config.Describe(),
		Args:          cobra.MinimumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readCLIOptions(cmd, args)
			if err != nil {
				return err
			}
			return run(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}

	flags := cmd.Flags()
	flags.BoolP("meta", "m", false, "Print the book's metadata before the text")
	flags.BoolP("notext", "n", false, "Print metadata only (implies --meta)")
	flags.BoolP("calibre", "c", false, "Include calibre series and sort metadata")
	flags.StringP("separator", "s", "", "Line printed before each section of the book")
	flags.IntP("width", "w", config.DefaultWidth, "Wrap text at this many columns; 0 disables wrapping")
	flags.BoolP("ascii", "a", false, "Fold output to 7-bit ASCII")
	flags.Bool("unzip", false, "Unpack books with the external unzip tool")
	flags.String("config", "", "Read settings from this YAML file")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json")
	flags.Bool("verbose", false, "Enable debug logging (overrides --log-level)")
	flags.Bool("strict", false, "Exit with status 2 when anything was skipped")

	return cmd
}

// readCLIOptions merges flags with the config file and environment. Flags
// that were set explicitly win.
func readCLIOptions(cmd *cobra.Command, args []string) (*cliOptions, error) {
	flags := cmd.Flags()

	configPath, _ := flags.GetString("config")
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("--config: %w", err)
	}

	opts := &cliOptions{
		Meta:             settings.Meta,
		NoText:           settings.NoText,
		Calibre:          settings.Calibre,
		SectionSeparator: settings.SectionSeparator,
		Width:            settings.Width,
		ASCII:            settings.ASCII,
		SandboxBase:      settings.SandboxBase(),
	}
	logLevel := settings.LogLevel
	logFormat := settings.LogFormat

	if flags.Changed("meta") {
		opts.Meta, _ = flags.GetBool("meta")
	}
	if flags.Changed("notext") {
		opts.NoText, _ = flags.GetBool("notext")
	}
	if flags.Changed("calibre") {
		opts.Calibre, _ = flags.GetBool("calibre")
	}
	if flags.Changed("separator") {
		opts.SectionSeparator, _ = flags.GetString("separator")
	}
	if flags.Changed("width") {
		opts.Width, _ = flags.GetInt("width")
	}
	if flags.Changed("ascii") {
		opts.ASCII, _ = flags.GetBool("ascii")
	}
	if flags.Changed("log-level") {
		logLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		logFormat, _ = flags.GetString("log-format")
	}
	opts.UseUnzip, _ = flags.GetBool("unzip")
	opts.Strict, _ = flags.GetBool("strict")

	if opts.NoText {
		opts.Meta = true
	}
	if opts.Width < 0 {
		return nil, fmt.Errorf("--width must be 0 or greater, got %d", opts.Width)
	}

	logLevel = strings.ToLower(logLevel)
	if _, ok := validLogLevels[logLevel]; !ok {
		return nil, fmt.Errorf("--log-level must be one of debug, info, warn, error, got %q", logLevel)
	}
	logFormat = strings.ToLower(logFormat)
	if logFormat != "text" && logFormat != "json" {
		return nil, fmt.Errorf("--log-format must be text or json, got %q", logFormat)
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		logLevel = "debug"
	}

	opts.Logger = buildLogger(cmd.ErrOrStderr(), logLevel, logFormat)
	opts.Inputs = expandInputs(args, opts.Logger)

	return opts, nil
}

// buildLogger creates the process logger. Unknown levels fall back to warn.
func buildLogger(w io.Writer, level, format string) *slog.Logger {
	lvl, ok := validLogLevels[strings.ToLower(level)]
	if !ok {
		lvl = slog.LevelWarn
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, handlerOpts))
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts))
}

// expandInputs expands arguments containing glob patterns ("**" included).
// Arguments that are not patterns, or match nothing, are kept as given so
// the conversion reports them as unreadable.
func expandInputs(args []string, logger *slog.Logger) []string {
	var inputs []string
	for _, arg := range args {
		if !strings.ContainsAny(arg, "*?[{") {
			inputs = append(inputs, arg)
			continue
		}

		matches, err := doublestar.FilepathGlob(arg, doublestar.WithFilesOnly())
		if err != nil || len(matches) == 0 {
			logger.Debug("pattern matched no files", "pattern", arg, "err", err)
			inputs = append(inputs, arg)
			continue
		}
		sort.Strings(matches)
		inputs = append(inputs, matches...)
	}
	return inputs
}

// run converts every input in turn. A fatal error on one input is reported
// and the next input is still converted.
func run(stdout, stderr io.Writer, opts *cliOptions) error {
	var extractor sandbox.Extractor
	if opts.UseUnzip {
		extractor = sandbox.CommandExtractor{}
	}
	manager := sandbox.NewManager(sandbox.Options{Base: opts.SandboxBase, Extractor: extractor})
	defer releaseOnSignal(manager, stderr)()
	renderOpts := render.Options{Width: opts.Width, ASCII: opts.ASCII}

	out := bufio.NewWriter(stdout)
	failed, degraded := 0, 0

	for _, input := range opts.Inputs {
		p := converter.NewPipeline(converter.ConvertOptions{
			InputPath:        input,
			Output:           out,
			Meta:             opts.Meta,
			NoText:           opts.NoText,
			Calibre:          opts.Calibre,
			SectionSeparator: opts.SectionSeparator,
			Render:           renderOpts,
			Renderer:         render.NewTextRenderer(renderOpts),
			Sandbox:          manager,
			Logger:           opts.Logger,
		})

		report, err := p.Convert()
		if ferr := out.Flush(); ferr != nil {
			fmt.Fprintf(stderr, "epub2txt: failed to write output: %v\n", ferr)
			return &exitError{code: exitFatal, msg: ferr.Error()}
		}
		if err != nil {
			fmt.Fprintf(stderr, "epub2txt: %s: %v\n", input, err)
			failed++
			continue
		}
		if report.Degraded() {
			degraded++
		}
		opts.Logger.Info("converted", "input", input, "items", report.Items, "skipped", report.Skipped)
	}

	switch {
	case failed > 0:
		return &exitError{code: exitFatal, msg: fmt.Sprintf("%d of %d inputs failed", failed, len(opts.Inputs))}
	case opts.Strict && degraded > 0:
		return &exitError{code: exitDegraded, msg: fmt.Sprintf("%d of %d inputs were converted incompletely", degraded, len(opts.Inputs))}
	}
	return nil
}

// releaseOnSignal removes any live sandbox and exits when the process is
// interrupted. The returned function stops watching.
func releaseOnSignal(manager *sandbox.Manager, stderr io.Writer) func() {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigs:
			if err := manager.ReleaseAll(); err != nil {
				fmt.Fprintf(stderr, "epub2txt: %v\n", err)
			}
			fmt.Fprintf(stderr, "epub2txt: %v\n", sig)
			os.Exit(exitInterrupted)
		case <-done:
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(done)
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitFatal)
	}
}
