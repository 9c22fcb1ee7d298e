package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/archtype/internal/catalog"
	"github.com/verte-zerg/archtype/internal/config"
	"github.com/verte-zerg/archtype/internal/model"
	"github.com/verte-zerg/archtype/internal/stats"
	"github.com/verte-zerg/archtype/internal/statsui"
	"github.com/verte-zerg/archtype/internal/store"
)

const (
	defaultScoresTop   = 10
	defaultTrendWindow = 5
)

var (
	commandsCategories []string
	commandsCatalog    string

	scoresSince   string
	scoresLast    int
	scoresOutcome string
	scoresTop     int
	scoresWindow  int
	scoresText    bool

	resetYes bool
)

var categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1793D1"))

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := config.EnsureTemplate(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newCommandsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commands",
		Short: "List the command catalog with categories and time limits",
		Args:  cobra.NoArgs,
		RunE:  runCommandsCmd,
	}
	cmd.Flags().StringSliceVar(&commandsCategories, "category", nil, "only list these categories")
	cmd.Flags().StringVar(&commandsCatalog, "catalog", "", "path to a custom command catalog")
	return cmd
}

func runCommandsCmd(cmd *cobra.Command, _ []string) error {
	cat, err := loadCatalog(model.Config{CatalogPath: commandsCatalog, Categories: commandsCategories})
	if err != nil {
		return err
	}
	if err := writeCatalog(cmd.OutOrStdout(), cat); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func writeCatalog(w io.Writer, cat *catalog.Catalog) error {
	current := ""
	first := true
	for _, entry := range cat.Entries() {
		if first || entry.Category != current {
			if !first {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			current = entry.Category
			first = false
			if _, err := fmt.Fprintln(w, categoryStyle.Render(current)); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintf(w, "  %5.2fs  %s\n", catalog.TimeLimit(entry.Command), entry.Command); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "\n%d commands\n", cat.Len())
	return err
}

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show high score and session history",
		Args:  cobra.NoArgs,
		RunE:  runScoresCmd,
	}
	cmd.Flags().StringVar(&scoresSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&scoresLast, "last", 0, "limit to last N sessions")
	cmd.Flags().StringVar(&scoresOutcome, "outcome", "", "only sessions ending in victory, defeat or quit")
	cmd.Flags().IntVar(&scoresTop, "top", defaultScoresTop, "rows in the command tables")
	cmd.Flags().IntVar(&scoresWindow, "trend-window", defaultTrendWindow, "moving average window for the trend")
	cmd.Flags().BoolVar(&scoresText, "text", false, "print a plain text report instead of the browser")
	return cmd
}

func runScoresCmd(cmd *cobra.Command, _ []string) error {
	filter, err := scoresFilter()
	if err != nil {
		return err
	}
	if err := config.LoadDotEnv(); err != nil {
		logErrf("ignoring .env: %v\n", err)
	}

	st, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if !scoresText && interactive() {
		browser := statsui.NewModel(st, statsui.Config{Filter: filter, Top: scoresTop, Window: scoresWindow})
		program := tea.NewProgram(browser, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run scores TUI: %w", err)
		}
		return nil
	}

	report, err := stats.BuildReport(commandContext(cmd), st, filter)
	if err != nil {
		return err
	}
	if err := report.Render(cmd.OutOrStdout(), scoresTop, scoresWindow); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func scoresFilter() (model.HistoryFilter, error) {
	filter := model.HistoryFilter{Last: scoresLast}
	if scoresLast < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	if scoresTop < 0 {
		return filter, fmt.Errorf("--top must be >= 0")
	}
	if scoresSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", scoresSince, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	switch outcome := strings.ToLower(strings.TrimSpace(scoresOutcome)); outcome {
	case "", "victory", "defeat", "quit":
		filter.Outcome = outcome
	default:
		return filter, fmt.Errorf("--outcome must be victory, defeat or quit")
	}
	return filter, nil
}

func newResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the high score and all session history",
		Args:  cobra.NoArgs,
		RunE:  runResetCmd,
	}
	cmd.Flags().BoolVar(&resetYes, "yes", false, "skip the confirmation prompt")
	return cmd
}

func runResetCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		logErrf("ignoring .env: %v\n", err)
	}
	if !resetYes {
		if !interactive() {
			return fmt.Errorf("refusing to reset without a terminal; pass --yes")
		}
		confirmed := false
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Delete the high score and all session history?").
					Affirmative("Yes").
					Negative("No").
					Value(&confirmed),
			),
		).WithShowHelp(false)
		if err := form.Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return nil
			}
			return fmt.Errorf("failed to confirm: %w", err)
		}
		if !confirmed {
			logErrln("Nothing deleted.")
			return nil
		}
	}

	st, err := store.Open(config.DBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if err := st.Reset(commandContext(cmd)); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	if _, err := fmt.Fprintln(cmd.OutOrStdout(), "High score and history deleted."); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
