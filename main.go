package main

import (
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/marcus-crane/boostboard/archive"
	"github.com/marcus-crane/boostboard/config"
	"github.com/marcus-crane/boostboard/extract"
	"github.com/marcus-crane/boostboard/models"
	"github.com/marcus-crane/boostboard/notify"
	"github.com/marcus-crane/boostboard/page"
	"github.com/marcus-crane/boostboard/utils"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	version string
	// Stores the date of this build. This should be set using -ldflags during compilation.
	date string
)

// errUsage means the usage text has already been printed
var errUsage = errors.New("missing input file")

type options struct {
	NoGrouping           bool   `long:"no-grouping" description:"Show every boost on its own row instead of merging boosts without a message"`
	IncludeEmptyEpisodes bool   `long:"include-empty-episodes" description:"Offer boosts without an episode name in the episode filter"`
	Title                string `long:"title" description:"Page title"`
	Archive              string `long:"archive" value-name:"PATH" description:"Record this run and its boosts in a SQLite archive"`
	Notify               bool   `long:"notify" description:"Send a Pushover summary once the page is written"`
	ConfigPath           string `long:"config" value-name:"PATH" env:"BOOSTBOARD_CONFIG" description:"YAML config file"`
	PrintConfig          bool   `long:"print-config" description:"Print the effective configuration and exit"`
	Debug                bool   `long:"debug" description:"Log at debug level"`
	ShowVersion          bool   `short:"v" long:"version" description:"Display version information and exit"`

	Args struct {
		Input  string `positional-arg-name:"input.json" description:"listinvoices export"`
		Output string `positional-arg-name:"output.html" description:"Defaults to the input path with an .html extension"`
	} `positional-args:"yes"`
}

// boostboardMain is the true entry point. This is required since defers
// created in the top-level scope of a main method aren't executed if
// os.Exit() is called.
func boostboardMain(args []string, stdout, stderr io.Writer) error {
	var opts options
	parser := flags.NewNamedParser("boostboard", flags.HelpFlag|flags.PassDoubleDash)
	parser.Usage = "[OPTIONS] <input.json> [output.html]"
	if _, err := parser.AddGroup("Application Options", "", &opts); err != nil {
		return err
	}

	if _, err := parser.ParseArgs(args); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Fprintln(stdout, e.Message)
		}
		return err
	}

	if opts.ShowVersion {
		fmt.Fprintf(stdout, "boostboard %s (commit %s, built %s)\n", version, commit, date)
		return nil
	}

	// Nothing is read or written before we know there is an input
	if opts.Args.Input == "" && !opts.PrintConfig {
		parser.WriteHelp(stdout)
		return errUsage
	}

	dotenvErr := godotenv.Load()

	cfg, err := config.Load(utils.ExpandPath(opts.ConfigPath))
	if err != nil {
		return err
	}
	applyFlags(&cfg, opts)

	logger, rotator := newLogger(cfg, opts.Debug, stderr)
	if rotator != nil {
		defer rotator.Close()
	}
	slog.SetDefault(logger)

	if dotenvErr != nil && !errors.Is(dotenvErr, fs.ErrNotExist) {
		slog.Warn("Failed to load .env file", slog.String("error", dotenvErr.Error()))
	}

	if opts.PrintConfig {
		out, err := cfg.YAML()
		if err != nil {
			return err
		}
		fmt.Fprint(stdout, out)
		return nil
	}

	output := opts.Args.Output
	if output == "" {
		output = utils.DefaultOutputPath(opts.Args.Input)
	}

	return generate(cfg, opts.Args.Input, output, opts.Notify)
}

func applyFlags(cfg *config.Config, opts options) {
	if opts.NoGrouping {
		cfg.Boostboard.GroupBoosts = false
	}
	if opts.IncludeEmptyEpisodes {
		cfg.Boostboard.IncludeEmptyEpisodes = true
	}
	if opts.Title != "" {
		cfg.Boostboard.Title = opts.Title
	}
	if opts.Archive != "" {
		cfg.Boostboard.ArchivePath = opts.Archive
	}
	if opts.Debug {
		cfg.Boostboard.LogLevel = "debug"
	}
}

// newLogger writes to stderr and, when a log file is configured, to a
// rotating file as well. The rotator is returned so it can be closed.
func newLogger(cfg config.Config, debug bool, stderr io.Writer) (*slog.Logger, *lumberjack.Logger) {
	level := cfg.GetLogLevel()
	if debug {
		level = slog.LevelDebug
	}

	var rotator *lumberjack.Logger
	out := stderr
	if cfg.Log.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   utils.ExpandPath(cfg.Log.File),
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
		}
		out = io.MultiWriter(stderr, rotator)
	}

	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), rotator
}

// generate reads the export, writes the dashboard and then runs the optional
// archive and notification steps. Only the first two can fail the run.
func generate(cfg config.Config, input, output string, sendNotification bool) error {
	export, err := extract.LoadExport(input)
	if err != nil {
		return err
	}

	result, err := extract.Extract(export, extract.Options{
		IncludeEmptyEpisodes: cfg.Boostboard.IncludeEmptyEpisodes,
	})
	if err != nil {
		return err
	}
	slog.Info("Extracted boosts",
		slog.Int("invoices", result.Stats.Seen),
		slog.Int("qualifying", result.Stats.Qualifying),
		slog.Int("malformed", result.Stats.Malformed),
		slog.Int("unreadable", result.Stats.Unreadable),
		slog.Int("boosts", result.Stats.Extracted),
	)
	for _, podcast := range result.Index.Podcasts() {
		slog.Debug("Indexed podcast",
			slog.String("podcast", podcast),
			slog.Any("episodes", result.Index.Episodes(podcast)),
		)
	}

	html, err := page.Render(result.Boosts, result.Index.Podcasts(), page.Options{
		Title:                cfg.Boostboard.Title,
		GroupBoosts:          cfg.Boostboard.GroupBoosts,
		IncludeEmptyEpisodes: cfg.Boostboard.IncludeEmptyEpisodes,
	})
	if err != nil {
		return err
	}
	if err := page.Write(output, html); err != nil {
		return err
	}

	summary := extract.Summarize(result.Boosts)
	slog.Info("Wrote dashboard",
		slog.String("path", output),
		slog.Int("boosts", summary.Boosts),
		slog.Int("messages", summary.Messages),
		slog.Int("podcasts", len(summary.Podcasts)),
		slog.String("sats", humanize.Commaf(summary.Sats)),
	)

	if cfg.Boostboard.ArchivePath != "" {
		if err := archiveRun(cfg.Boostboard.ArchivePath, input, output, result, summary); err != nil {
			slog.Error("Failed to archive run", slog.String("error", err.Error()))
		}
	}

	if sendNotification {
		if !cfg.PushoverEnabled() {
			slog.Warn("Skipping notification as PUSHOVER_TOKEN and PUSHOVER_RECIPIENT are not both set")
			return nil
		}
		var notifier notify.Notifier = notify.NewPushover(cfg.Pushover.Token, cfg.Pushover.Recipient)
		if err := notifier.Notify(summary, output); err != nil {
			slog.Error("Failed to send notification", slog.String("error", err.Error()))
		}
	}

	return nil
}

func archiveRun(path, input, output string, result extract.Result, summary models.Summary) error {
	store, err := archive.NewSqliteStore(utils.ExpandPath(path))
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.ApplyMigrations(); err != nil {
		return err
	}

	run := archive.NewRun(input, output, time.Now())
	run.InvoicesSeen = result.Stats.Seen
	run.Malformed = result.Stats.Malformed
	run.Boosts = summary.Boosts
	run.TotalSats = summary.Sats

	if err := store.RecordRun(run, result.Boosts); err != nil {
		return err
	}
	slog.Debug("Archived run", slog.String("run", run.ID), slog.String("archive", path))
	return nil
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := boostboardMain(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !usageShown(err) {
			slog.Error("Failed running boostboard", slog.String("error", err.Error()))
		}
		os.Exit(1)
	}
}

// usageShown reports whether the error was already explained on stdout
func usageShown(err error) bool {
	var flagErr *flags.Error
	if errors.As(err, &flagErr) && flagErr.Type == flags.ErrHelp {
		return true
	}
	return errors.Is(err, errUsage)
}
