package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/metcalfc/prr/internal/config"
	"github.com/metcalfc/prr/internal/nav"
	"github.com/metcalfc/prr/internal/reader"
	"github.com/metcalfc/prr/internal/state"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var errNoInput = errors.New("no input provided. Provide a file or pipe text to stdin")

type startFlags struct {
	maxItems     int
	lines        int
	theme        string
	toc          bool
	fresh        bool
	history      string
	titlePattern string
	debug        bool
	logPath      string
}

// session is everything a UI needs to show one document.
type session struct {
	doc          *reader.Document
	settings     config.Settings
	settingsPath string
	store        state.Store
	fresh        bool
	logger       *slog.Logger
	logFile      io.Closer
}

// resumeLine returns where reading stopped last time. --fresh forgets it.
func (s *session) resumeLine() (int, bool) {
	if s.store == nil {
		return 0, false
	}
	if s.fresh {
		if err := s.store.Clear(s.doc.ID); err != nil {
			s.logger.Warn("failed to clear reading position", "document", s.doc.ID, "err", err)
		}
		return 0, false
	}
	line, ok := s.store.History(s.doc.ID)
	if !ok || line < 0 || line >= len(s.doc.Lines) {
		return 0, false
	}
	return line, true
}

// saveSettings persists settings changed from the UI. Failures are logged.
func (s *session) saveSettings() {
	if err := config.Save(s.settingsPath, s.settings); err != nil {
		s.logger.Warn("failed to save settings", "path", s.settingsPath, "err", err)
	}
}

// saveLine records where the reader stopped, outside of navigation.
func (s *session) saveLine(line int) {
	if s.store == nil {
		return
	}
	if err := s.store.SetHistory(s.doc.ID, line); err != nil {
		s.logger.Warn("failed to save reading position", "document", s.doc.ID, "line", line, "err", err)
	}
}

// history adapts the store to the navigator. It is nil when there is no store.
func (s *session) history() nav.History {
	if s.store == nil {
		return nil
	}
	return s.store
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
}

func newRootCmd(run func(*session) error) *cobra.Command {
	var flags startFlags

	cmd := &cobra.Command{
		Use:     appName + " [file]",
		Short:   "Paginated reader for text, Markdown and EPUB",
		Long:    "Reads a document page by page with a table of contents and remembers where you stopped.\n\nFormats: " + strings.Join(reader.SupportedFormats(), ", "),
		Args:    cobra.MaximumNArgs(1),
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		Example: "  " + appName + " book.epub\n" +
			"  " + appName + " --toc --theme dark notes.md\n" +
			"  cat file.txt | " + appName,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, flags, args)
			if err != nil {
				return err
			}
			defer s.Close()
			return run(s)
		},
	}

	def := config.Default()
	cmd.Flags().IntVarP(&flags.maxItems, "max-items", "m", def.MaxPageItems, fmt.Sprintf("entries in the page strip (at least %d)", nav.MinPageListLength))
	cmd.Flags().IntVarP(&flags.lines, "lines", "n", def.LinesPerPage, "rows per page (0 = fit the window)")
	cmd.Flags().StringVar(&flags.theme, "theme", def.Theme, "color theme: auto, light or dark")
	cmd.Flags().BoolVar(&flags.toc, "toc", def.ShowTOC, "show the table of contents")
	cmd.Flags().BoolVar(&flags.fresh, "fresh", false, "ignore the saved reading position")
	cmd.Flags().StringVar(&flags.history, "history", def.History, "history backend: json or sqlite")
	cmd.Flags().StringVar(&flags.titlePattern, "title-pattern", "", "extra regular expression for heading lines")
	cmd.Flags().BoolVar(&flags.debug, "debug", false, "write debug logs")
	cmd.Flags().StringVar(&flags.logPath, "log", "", "log file (default $XDG_STATE_HOME/prr/prr.log with --debug)")
	return cmd
}

// applyFlags overrides settings with the flags set on the command line.
func applyFlags(cmd *cobra.Command, flags startFlags, s config.Settings) (config.Settings, error) {
	changed := cmd.Flags().Changed
	if changed("max-items") {
		s.MaxPageItems = flags.maxItems
	}
	if changed("lines") {
		s.LinesPerPage = flags.lines
	}
	if changed("theme") {
		s.Theme = strings.ToLower(strings.TrimSpace(flags.theme))
	}
	if changed("toc") {
		s.ShowTOC = flags.toc
	}
	if changed("history") {
		s.History = flags.history
	}
	if changed("title-pattern") {
		s.TitlePattern = flags.titlePattern
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func newSession(cmd *cobra.Command, flags startFlags, args []string) (*session, error) {
	logger, logFile, err := newLogger(flags)
	if err != nil {
		return nil, err
	}
	s := &session{
		settingsPath: config.Path(),
		fresh:        flags.fresh,
		logger:       logger,
		logFile:      logFile,
	}

	settings, err := config.Load(s.settingsPath)
	if err != nil {
		// Non-fatal - start with defaults
		logger.Warn("ignoring settings file", "err", err)
	}
	if s.settings, err = applyFlags(cmd, flags, settings); err != nil {
		s.Close()
		return nil, err
	}

	pattern, _ := s.settings.TitleRegexp()
	opts := reader.Options{TitlePattern: pattern}
	if len(args) > 0 {
		s.doc, err = loadFile(args[0], opts)
	} else {
		s.doc, err = loadStdin(cmd.InOrStdin(), opts)
	}
	if err != nil {
		s.Close()
		return nil, err
	}
	if strings.TrimSpace(strings.Join(s.doc.Lines, "")) == "" {
		s.Close()
		return nil, errors.New("no text to read")
	}

	store, err := state.Open(s.settings.History)
	if err != nil {
		// Non-fatal - read without history
		logger.Warn("history disabled", "backend", s.settings.History, "err", err)
	} else {
		s.store = store
	}

	logger.Info("document loaded",
		"name", s.doc.Name,
		"id", s.doc.ID,
		"lines", len(s.doc.Lines),
		"titles", len(s.doc.Titles))
	return s, nil
}

func loadFile(filename string, opts reader.Options) (*reader.Document, error) {
	doc, err := reader.Open(filename, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to read file '%s': %w", filename, err)
	}
	if doc.ID, err = state.ComputeHash(filename); err != nil {
		return nil, err
	}
	return doc, nil
}

func loadStdin(in io.Reader, opts reader.Options) (*reader.Document, error) {
	if f, ok := in.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil, errNoInput
	}
	data, err := io.ReadAll(in)
	if err != nil {
		return nil, fmt.Errorf("reading stdin: %w", err)
	}
	doc := reader.FromText("stdin", string(data), opts)
	doc.ID = state.HashBytes(data)
	return doc, nil
}

// newLogger writes to a file since the terminal belongs to the UI.
// Without --debug or --log everything is discarded.
func newLogger(flags startFlags) (*slog.Logger, io.Closer, error) {
	if !flags.debug && flags.logPath == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), nil, nil
	}
	path := flags.logPath
	if path == "" {
		path = filepath.Join(state.Dir(), appName+".log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log: %w", err)
	}
	level := slog.LevelInfo
	if flags.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, f, nil
}

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
