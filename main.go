package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/osteele/treeselect/internal/app"
	"github.com/osteele/treeselect/internal/config"
	"github.com/osteele/treeselect/internal/debug"
	"github.com/osteele/treeselect/internal/ui"
)

// exitCancelled is the exit status when the user quits without accepting.
const exitCancelled = 130

var errCancelled = errors.New("cancelled")

var (
	configPath = flag.String("config", "", "Config file (default: $XDG_CONFIG_HOME/treeselect/config.toml)")
	mode       = flag.String("mode", "", "Selection mode: select, single, multiselect, autocomplete")
	sizing     = flag.String("sizing", "", "Row sizing: fixed, auto, none")
	theme      = flag.String("theme", "", "Theme: auto, light, dark")
	watch      = flag.Bool("watch", false, "Reload the item file when it changes")
	stateFile  = flag.String("state", "", "File to persist collapse state in")
	output     = flag.String("output", app.OutputKey, "Output format: key, text, json")
	value      = flag.String("value", "", "Comma-separated keys to preselect")
	title      = flag.String("title", "Select", "List title")
	export     = flag.String("export", "", "Write the item files to this SQLite database and exit")
	logFile    = flag.String("log", "treeselect-debug.log", "Debug log file (with TREESELECT_DEBUG=1)")
	showHelp   = flag.Bool("h", false, "Show help")
)

func main() {
	flag.BoolVar(showHelp, "help", false, "Show help")
	flag.Parse()

	if *showHelp {
		fmt.Println("treeselect - pick items from a tree in the terminal")
		fmt.Println()
		fmt.Println("Usage: treeselect [options] [file ...]")
		fmt.Println()
		fmt.Println("Files may be YAML, JSON, SQLite (.db) or indented outlines.")
		fmt.Println("With no file, an outline is read from stdin.")
		fmt.Println()
		fmt.Println("Options:")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if err := run(); err != nil {
		if errors.Is(err, errCancelled) {
			os.Exit(exitCancelled)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	if *configPath != "" {
		cfg, err = config.LoadFile(*configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Flags override the config file
	if *mode != "" {
		cfg.List.Mode = *mode
	}
	if *sizing != "" {
		cfg.List.Sizing = *sizing
	}
	if *theme != "" {
		cfg.UI.Theme = config.ThemeMode(*theme)
	}
	if *watch {
		cfg.Source.Watch = true
	}
	if *stateFile != "" {
		cfg.Source.StateFile = *stateFile
	}
	return cfg, nil
}

func run() error {
	if *export != "" {
		return app.Export(context.Background(), *export, flag.Args())
	}

	if debug.Enabled() {
		f, err := tea.LogToFile(*logFile, "treeselect")
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		debug.SetOutput(f)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	mainApp, err := app.NewApp(cfg)
	if err != nil {
		return err
	}
	defer mainApp.Close()

	provider, err := mainApp.Provider(flag.Args())
	if err != nil {
		return err
	}
	list, err := mainApp.NewList()
	if err != nil {
		return err
	}
	defer list.Close()

	model := ui.NewModel(list, provider, mainApp.Theme)
	model.Title = *title
	model.MaxHeight = cfg.List.MaxHeight
	if *value != "" {
		model.InitialValue = strings.Split(*value, ",")
	}

	// The picker draws on stderr so the selection can be piped.
	opts := []tea.ProgramOption{
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
		tea.WithOutput(os.Stderr),
	}
	if args := flag.Args(); len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		// Items arrive on stdin, so keys must come from the terminal.
		opts = append(opts, tea.WithInputTTY())
	}
	p := tea.NewProgram(model, opts...)
	result, err := p.Run()
	if err != nil {
		return fmt.Errorf("application error: %w", err)
	}

	if err := mainApp.SaveListState(list); err != nil {
		debug.Log("main: %v", err)
	}

	final := result.(ui.Model)
	if final.Cancelled {
		return errCancelled
	}
	return app.WriteResult(os.Stdout, *output, final.Result)
}
