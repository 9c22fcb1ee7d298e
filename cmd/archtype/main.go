// Package main provides the CLI entrypoint for archtype.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/archtype/internal/audio"
	"github.com/verte-zerg/archtype/internal/catalog"
	"github.com/verte-zerg/archtype/internal/config"
	"github.com/verte-zerg/archtype/internal/game"
	"github.com/verte-zerg/archtype/internal/lineplay"
	"github.com/verte-zerg/archtype/internal/logging"
	"github.com/verte-zerg/archtype/internal/model"
	"github.com/verte-zerg/archtype/internal/stats"
	"github.com/verte-zerg/archtype/internal/store"
	"github.com/verte-zerg/archtype/internal/tui"
)

const (
	defaultOnTimeout  = string(game.PolicyRetry)
	defaultWeakTop    = 10
	defaultWeakWindow = 20
)

var (
	playOnTimeout  string
	playSound      bool
	playCategories []string
	playCount      int
	playCatalog    string
	playPlain      bool
	playFocusWeak  bool
	playWeakTop    int
	playWeakWindow int
	playDebug      bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "archtype",
		Short:         "Race the clock typing Linux commands",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playOnTimeout, "on-timeout", defaultOnTimeout, `what an expired countdown does: "retry" or "end"`)
	rootCmd.Flags().BoolVar(&playSound, "sound", false, "play sound cues")
	rootCmd.Flags().StringSliceVar(&playCategories, "category", nil, "restrict the session to these categories (repeatable)")
	rootCmd.Flags().IntVar(&playCount, "count", 0, "number of commands per session (0 = whole catalog)")
	rootCmd.Flags().StringVar(&playCatalog, "catalog", "", "path to a custom command catalog")
	rootCmd.Flags().BoolVar(&playPlain, "plain", false, "line-by-line mode without the full-screen UI")
	rootCmd.Flags().BoolVar(&playFocusWeak, "focus-weak", false, "play your weakest commands first")
	rootCmd.Flags().IntVar(&playWeakTop, "weak-top", defaultWeakTop, "number of weak commands to focus on")
	rootCmd.Flags().IntVar(&playWeakWindow, "weak-window", defaultWeakWindow, "number of recent sessions to find weak commands")
	rootCmd.Flags().BoolVar(&playDebug, "debug", false, "write debug logs to the state directory")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCommandsCmd())
	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newResetCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(); err != nil {
		logErrf("ignoring .env: %v\n", err)
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "on-timeout", &playOnTimeout, fileCfg.Game.OnTimeout)
	applyBoolConfig(cmd, "sound", &playSound, fileCfg.Game.Sound)
	applyStringSliceConfig(cmd, "category", &playCategories, fileCfg.Game.Categories)
	applyIntConfig(cmd, "count", &playCount, fileCfg.Game.Count)
	applyStringConfig(cmd, "catalog", &playCatalog, fileCfg.Game.Catalog)
	applyBoolConfig(cmd, "plain", &playPlain, fileCfg.Game.Plain)
	applyBoolConfig(cmd, "focus-weak", &playFocusWeak, fileCfg.Game.FocusWeak)
	applyIntConfig(cmd, "weak-top", &playWeakTop, fileCfg.Game.WeakTop)
	applyIntConfig(cmd, "weak-window", &playWeakWindow, fileCfg.Game.WeakWindow)

	cfg := model.Config{
		OnTimeout:   playOnTimeout,
		Sound:       playSound,
		Categories:  playCategories,
		Count:       playCount,
		CatalogPath: playCatalog,
		Plain:       playPlain,
		FocusWeak:   playFocusWeak,
		WeakTop:     playWeakTop,
		WeakWindow:  playWeakWindow,
	}
	policy, err := validateConfig(cfg)
	if err != nil {
		return err
	}

	logger, err := newLogger(fileCfg.Log)
	if err != nil {
		return err
	}
	defer logging.Sync(logger)

	cat, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DBPath())
	if err != nil {
		logErrf("history disabled: failed to open db: %v\n", err)
		logger.Warn("failed to open db", zap.Error(err))
		st = nil
	} else {
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	var weak []model.CommandAggregate
	if cfg.FocusWeak && st != nil {
		weak = loadWeakCommands(commandContext(cmd), st, cfg)
		if len(weak) == 0 {
			logErrln("no history for weak-command focus yet; using a plain shuffle")
		}
	}
	order := buildOrder(cat, cfg, rnd, weak)
	logger.Info("session prepared",
		zap.Int("commands", len(order)),
		zap.String("policy", string(policy)),
		zap.Strings("categories", cfg.Categories))

	var cues game.Presenter
	if cfg.Sound {
		player := audio.New(logger)
		if err := player.Init(); err != nil {
			logErrf("sound disabled: %v\n", err)
		} else {
			defer player.Close()
			cues = player
		}
	}

	recorder := store.NewRecorder(st, logger)
	var summary game.Summary
	var ok bool
	if cfg.Plain || !interactive() {
		summary, ok, err = runLineMode(cmd, order, policy, recorder, cues, logger)
	} else {
		summary, ok, err = runTUI(order, policy, recorder, cues, logger)
	}
	if err != nil {
		return err
	}
	if ok {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), summaryLine(summary)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runTUI(order []string, policy game.TimeoutPolicy, recorder *store.Recorder, cues game.Presenter, logger *zap.Logger) (game.Summary, bool, error) {
	m := tui.NewModel(order, tui.Options{
		Policy:  policy,
		Scores:  recorder,
		History: recorder,
		Cues:    cues,
		Logger:  logger,
	})
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return game.Summary{}, false, fmt.Errorf("failed to run TUI: %w", err)
	}
	summary, ok := m.Summary()
	return summary, ok, nil
}

func runLineMode(cmd *cobra.Command, order []string, policy game.TimeoutPolicy, recorder *store.Recorder, cues game.Presenter, logger *zap.Logger) (game.Summary, bool, error) {
	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt)
	defer stop()
	summary, err := lineplay.Run(ctx, order, lineplay.Options{
		Policy:  policy,
		Scores:  recorder,
		History: recorder,
		Cues:    cues,
		Logger:  logger,
		In:      cmd.InOrStdin(),
		Out:     cmd.OutOrStdout(),
	})
	if err != nil {
		return summary, false, fmt.Errorf("failed to run session: %w", err)
	}
	// The text presenter already printed the full summary.
	return summary, false, nil
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	level := config.LogLevel(cfg)
	if level == "" && playDebug {
		level = "debug"
	}
	logger, err := logging.New(config.LogPath(cfg), level)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return logger, nil
}

func loadCatalog(cfg model.Config) (*catalog.Catalog, error) {
	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		loaded, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load catalog: %w", err)
		}
		cat = loaded
	}
	if len(cfg.Categories) == 0 {
		return cat, nil
	}
	filtered, err := cat.Filter(cfg.Categories)
	if err != nil {
		return nil, err
	}
	return filtered, nil
}

func loadWeakCommands(ctx context.Context, st *store.Store, cfg model.Config) []model.CommandAggregate {
	report, err := stats.BuildReport(ctx, st, model.HistoryFilter{Last: cfg.WeakWindow})
	if err != nil {
		logErrf("failed to load weak commands: %v\n", err)
		return nil
	}
	weak := stats.WeakCommands(report.Commands, cfg.WeakTop)
	out := weak[:0]
	for _, agg := range weak {
		if agg.Timeouts > 0 || agg.AvgPct > 50 {
			out = append(out, agg)
		}
	}
	return out
}

// buildOrder shuffles the catalog, moves weak commands to the front and
// trims the order to the session length.
func buildOrder(cat *catalog.Catalog, cfg model.Config, rnd *rand.Rand, weak []model.CommandAggregate) []string {
	order := cat.Shuffle(rnd)
	if len(weak) > 0 {
		order = stats.PrioritizeWeak(order, weak)
	}
	if cfg.Count > 0 && cfg.Count < len(order) {
		order = order[:cfg.Count]
	}
	return order
}

func validateConfig(cfg model.Config) (game.TimeoutPolicy, error) {
	policy, err := game.ParseTimeoutPolicy(cfg.OnTimeout)
	if err != nil {
		return "", fmt.Errorf("--on-timeout must be %q or %q", game.PolicyRetry, game.PolicyEnd)
	}
	if cfg.Count < 0 {
		return "", fmt.Errorf("--count must be >= 0")
	}
	if cfg.WeakTop < 0 {
		return "", fmt.Errorf("--weak-top must be >= 0")
	}
	if cfg.WeakWindow < 0 {
		return "", fmt.Errorf("--weak-window must be >= 0")
	}
	return policy, nil
}

func summaryLine(s game.Summary) string {
	parts := []string{
		strings.ToUpper(string(s.Outcome)),
		fmt.Sprintf("score %d", s.Score),
		fmt.Sprintf("high %d", s.HighScore),
		fmt.Sprintf("level %d", s.Level),
		fmt.Sprintf("%d/%d commands", s.Completed, s.Total),
	}
	if s.NewHighScore {
		parts = append(parts, "new high score!")
	}
	return strings.Join(parts, " · ")
}

func interactive() bool {
	in := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	out := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return in && out
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyStringSliceConfig(cmd *cobra.Command, name string, target *[]string, value []string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = append([]string(nil), value...)
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
