// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the completion server and CLI [DBG] application.

Note: This is a BETA release. APIs and functionality may rapidly change.

CellComplete drives completion sessions for projectional editors: a menu
of items matching the text before the caret, or a side popup that turns
typed text into tokens as soon as it is unambiguous. Items come from a
keyword list, a frequency ranked vocabulary loaded in the background and
the history of committed words.

# Usage

Start the IPC server with default settings:

	cellcomplete

Use a custom data directory and enable debug mode:

	cellcomplete serve --data /path/to/chunks --debug

Run the REPL to inspect matching decisions:

	cellcomplete repl --limit 10 --keywords if,in,int

Build vocabulary chunks from a word list, one "word [score]" per line:

	cellcomplete dict build words.txt --out data/

The data directory holds chunk files named dict_0001.bin, dict_0002.bin,
etc., and optionally plain text word lists. Chunks are decoded in parallel
while sessions already run on keywords and history.

# Configuration

Runtime configuration is read from a TOML file, created with defaults on
first run:

	[completion]
	eager = false
	default_page_height = 8
	max_items = 64

	[keys]
	accept = ["enter", "tab"]
	dismiss = ["esc"]

	[dict]
	max_words = 50000
	min_frequency_threshold = 20

Use "cellcomplete config print" to see the active values and
"cellcomplete config rebuild" to restore the defaults.

# IPC Protocol

The server reads MessagePack request frames from stdin and answers each
with one response frame on stdout. See package server for the ops:

	{"id": "1", "op": "activate", "text": "co"}
	{"id": "1", "state": "ready", "items": ["column", "count"], "sel": 0, "doc": "co", "t": 92}

Logs go to stderr as text, JSON or logfmt (--log-format).
*/
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/bastiangx/cellcomplete/internal/cli"
	"github.com/bastiangx/cellcomplete/internal/logger"
	"github.com/bastiangx/cellcomplete/internal/utils"
	"github.com/bastiangx/cellcomplete/pkg/config"
	"github.com/bastiangx/cellcomplete/pkg/dictionary"
	"github.com/bastiangx/cellcomplete/pkg/server"
	"github.com/bastiangx/cellcomplete/pkg/suggest"
)

const (
	Version = "0.1.0-beta"
	gh      = "https://github.com/bastiangx/cellcomplete"
)

type options struct {
	debug      bool
	configPath string
	dataDir    string
	keywords   []string
	eager      bool
	logFormat  string
}

var formatters = map[string]log.Formatter{
	"text":   log.TextFormatter,
	"json":   log.JSONFormatter,
	"logfmt": log.LogfmtFormatter,
}

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

func main() {
	sigHandler()
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve completion sessions over MessagePack on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	root := &cobra.Command{
		Use:           utils.AppName,
		Short:         "Completion sessions for projectional editors",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serveCmd.RunE,
	}
	root.SetVersionTemplate("{{.Version}}\n")

	flags := root.PersistentFlags()
	flags.BoolVarP(&opts.debug, "debug", "d", false, "Toggle debug mode")
	flags.StringVar(&opts.configPath, "config", "", "Path to a custom config file")
	flags.StringVar(&opts.dataDir, "data", "", "Directory containing the vocabulary files (default from config)")
	flags.StringSliceVar(&opts.keywords, "keywords", nil, "Keywords offered in every session")
	flags.BoolVar(&opts.eager, "eager", false, "Complete a single match even when longer items share its prefix")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Server log format on stderr: text, json or logfmt")

	root.AddCommand(serveCmd, newReplCmd(opts), newConfigCmd(opts), newDictCmd(opts), newVersionCmd())
	return root
}

func newReplCmd(opts *options) *cobra.Command {
	var (
		limit, minPrefix, maxPrefix int
		noFilter                    bool
	)
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Inspect suggestions and matching decisions line by line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger.Setup(opts.debug, log.InfoLevel)
			cfg := loadConfig(opts)

			vocab := newVocabulary(cmd.Context(), cfg, opts)
			log.Debug("Input info:",
				"minPrefix", minPrefix,
				"maxPrefix", maxPrefix,
				"limit", limit,
				"noFilter", noFilter)

			h := cli.NewInputHandler(vocab, vocab, minPrefix, maxPrefix, limit, noFilter)
			h.SetEager(cfg.Completion.Eager)
			if err := h.Start(os.Stdin); err != nil {
				return fmt.Errorf("CLI error: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 24, "Number of suggestions to return")
	cmd.Flags().IntVar(&minPrefix, "prmin", 1, "Minimum prefix length for suggestions")
	cmd.Flags().IntVar(&maxPrefix, "prmax", 60, "Maximum prefix length for suggestions")
	cmd.Flags().BoolVar(&noFilter, "no-filter", false, "Disable input filtering (DBG only)")
	return cmd
}

func newConfigCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or reset the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "print",
			Short: "Print the active configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				logger.Setup(opts.debug, log.WarnLevel)
				cfg, path, err := config.LoadConfigWithPriority(opts.configPath)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", config.GetActiveConfigPath(path))
				return toml.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			},
		},
		&cobra.Command{
			Use:   "rebuild",
			Short: "Overwrite the default config file with the built-in defaults",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				logger.Setup(opts.debug, log.WarnLevel)
				path, err := config.RebuildConfigFile()
				if err != nil {
					return fmt.Errorf("failed to rebuild config: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

func newDictCmd(opts *options) *cobra.Command {
	var out string
	build := &cobra.Command{
		Use:   "build <wordlist>",
		Short: "Convert a text word list into binary chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger.Setup(opts.debug, log.InfoLevel)
			cfg := loadConfig(opts)

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entries, err := dictionary.ReadText(f)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}
			if out == "" {
				out = cfg.Dict.Dir
			}
			n, err := dictionary.BuildChunks(entries, out, cfg.Dict.ChunkSize)
			if err != nil {
				return err
			}
			log.Infof("Wrote %d chunks to %s", n, out)
			return nil
		},
	}
	build.Flags().StringVar(&out, "out", "", "Output directory (default from config)")

	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage vocabulary files",
	}
	cmd.AddCommand(build)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show current version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			out := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    false,
				ReportTimestamp: false,
				Prefix:          "",
			})

			styles := log.DefaultStyles()
			styles.Values["version"] = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
				Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
			out.SetStyles(styles)

			out.Print("")
			out.Print("[ CellComplete ] Completion sessions for projectional editors")
			out.Print("", "version", Version)
			out.Print("")
			out.Print("use -h or --help to see available options")
			out.Print("Github Repo", "gh", gh)
		},
	}
}

func runServe(ctx context.Context, opts *options) error {
	logger.Setup(opts.debug, log.ErrorLevel)
	formatter, ok := formatters[opts.logFormat]
	if !ok {
		return fmt.Errorf("unknown log format %q", opts.logFormat)
	}
	cfg := loadConfig(opts)

	vocab := newVocabulary(ctx, cfg, opts)
	srv := server.NewServer(vocab, cfg,
		server.WithCompleter(vocab),
		server.WithLogger(logger.NewWithConfig("server", log.GetLevel(), opts.debug, true, formatter)),
	)

	if opts.debug {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()
		go logEvents(ctx, srv)
	}

	showStartupInfo()
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func logEvents(ctx context.Context, srv *server.Server) {
	for ev := range srv.Events().Subscribe(ctx) {
		log.Debug("session event",
			"type", ev.Type,
			"session", ev.Payload.SessionID,
			"variant", ev.Payload.Variant,
			"visible", ev.Payload.Visible)
	}
}

func loadConfig(opts *options) *config.Config {
	cfg, path, err := config.LoadConfigWithPriority(opts.configPath)
	if err != nil {
		log.Warnf("Failed to load config: %v. Using built-in defaults...", err)
		return config.DefaultConfig()
	}
	log.Debugf("Using config file: (%s)", config.GetActiveConfigPath(path))
	if opts.eager {
		cfg.Completion.Eager = true
	}
	return cfg
}

// newVocabulary starts loading the vocabulary in the background. Without
// a usable data dir it runs on keywords and history alone.
func newVocabulary(ctx context.Context, cfg *config.Config, opts *options) *suggest.Vocabulary {
	vopts := []suggest.Option{
		suggest.WithKeywords(opts.keywords...),
		suggest.WithHistory(suggest.NewHistory(cfg.History.MaxEntries)),
		suggest.WithMaxItems(cfg.Completion.MaxItems),
		suggest.WithMinFrequency(cfg.Dict.MinFreqThreshold),
		suggest.WithLogger(logger.New("vocab")),
	}

	dataDir := opts.dataDir
	if dataDir == "" {
		dataDir = cfg.Dict.Dir
	}
	dir, err := resolveDataDir(dataDir)
	if err != nil {
		log.Warnf("No vocabulary dir (%v), running with keywords only...", err)
		return suggest.NewVocabulary(vopts...)
	}
	log.Debugf("Using data dir at: %s", dir)
	log.Debugf("Init vocabulary: maxWords=[%d], keywords=[%s]", cfg.Dict.MaxWords, strings.Join(opts.keywords, ","))

	loader := dictionary.NewLoader(dir,
		dictionary.WithMaxWords(cfg.Dict.MaxWords),
		dictionary.WithMaxRetries(cfg.Dict.MaxRetries),
		dictionary.WithLogger(logger.New("dict")),
	)
	index := loader.LoadAsync(ctx)
	index.OnSuccess(func(ix *dictionary.Index) {
		stats := loader.GetStats()
		log.Debugf("Vocabulary loaded: %d words from %d chunks", ix.Len(), stats.LoadedChunks)
	})
	index.OnFailure(func(err error) {
		log.Errorf("Failed to load vocabulary: %v", err)
	})

	return suggest.NewVocabulary(append(vopts, suggest.WithIndex(index))...)
}

func resolveDataDir(dir string) (string, error) {
	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		return "", fmt.Errorf("failed to initialize path resolver: %w", err)
	}
	return pathResolver.GetDataDir(dir)
}

// showStartupInfo displays some basic info about the init process on stderr.
func showStartupInfo() {
	log.Debugf("Version: %s", Version)
	log.Debugf("Process ID: [ %d ]", os.Getpid())
	log.Debug("status: ready")
}
