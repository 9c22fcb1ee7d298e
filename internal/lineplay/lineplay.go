// Package lineplay runs a session over plain line-oriented input, for
// terminals without a full-screen UI and for piped input.
package lineplay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/muesli/cancelreader"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/verte-zerg/archtype/internal/game"
)

const defaultBarWidth = 30

// Options configures a line-mode session.
type Options struct {
	Policy  game.TimeoutPolicy
	Scores  game.HighScoreStore
	History game.History
	Cues    game.Presenter
	Clock   func() time.Time
	Logger  *zap.Logger
	In      io.Reader
	Out     io.Writer
	// BarWidth overrides the countdown bar width; 0 sizes it to the terminal.
	BarWidth int
}

// Run prints the rules and waits for the first line before the clock starts.
// A blank first line only starts the session; any other first line is also
// the first attempt. Each later line is one attempt. Run returns when the
// session finishes, input reaches EOF or ctx is cancelled. Readers that are
// not terminals or pipes cannot be interrupted and must be closed by the
// caller once the session is over.
func Run(ctx context.Context, order []string, opts Options) (game.Summary, error) {
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.BarWidth <= 0 {
		opts.BarWidth = terminalBarWidth(opts.Out)
	}

	reader, err := newInputReader(opts.In)
	if err != nil {
		return game.Summary{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()

	text := NewTextPresenter(opts.Out, opts.BarWidth, opts.Policy)
	text.Intro(len(order))
	presenters := game.Presenters{text}
	if opts.Cues != nil {
		presenters = append(presenters, opts.Cues)
	}
	ctrl := game.NewController(order, game.Options{
		Policy:    opts.Policy,
		Presenter: presenters,
		Scores:    opts.Scores,
		History:   opts.History,
		Clock:     opts.Clock,
		Logger:    opts.Logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, stop := context.WithCancel(gctx)
	lines := make(chan string)

	g.Go(func() error {
		defer close(lines)
		scanner := bufio.NewScanner(reader)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-loopCtx.Done():
				return nil
			}
		}
		if err := scanner.Err(); err != nil && !errors.Is(err, cancelreader.ErrCanceled) {
			return fmt.Errorf("failed to read input: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		defer func() {
			stop()
			if !reader.Cancel() {
				opts.Logger.Debug("input reader is not cancelable")
			}
		}()
		return loop(loopCtx, ctrl, lines)
	})

	err = g.Wait()
	stop()
	summary, _ := ctrl.Summary()
	return summary, err
}

// loop owns the controller: every controller call happens here.
func loop(ctx context.Context, ctrl *game.Controller, lines <-chan string) error {
	if !awaitStart(ctx, ctrl, lines) {
		return nil
	}
	period := ctrl.TickPeriod()
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	for !ctrl.Finished() {
		select {
		case <-ctx.Done():
			ctrl.Quit()
			return nil
		case line, ok := <-lines:
			if !ok {
				ctrl.Quit()
				return nil
			}
			ctrl.Commit(line)
		case <-ticker.C:
			ctrl.Tick(ctrl.Generation())
		}
		if next := ctrl.TickPeriod(); next != period {
			period = next
			ticker.Reset(period)
		}
	}
	return nil
}

// awaitStart blocks until the first line arrives and starts the session.
// It reports false when input ended or ctx was cancelled first.
func awaitStart(ctx context.Context, ctrl *game.Controller, lines <-chan string) bool {
	select {
	case <-ctx.Done():
		ctrl.Quit()
		return false
	case line, ok := <-lines:
		if !ok {
			ctrl.Quit()
			return false
		}
		ctrl.Start()
		if strings.TrimSpace(line) != "" {
			ctrl.Commit(line)
		}
		return true
	}
}

// newInputReader makes in cancelable when the platform can poll it. Regular
// files and devices like /dev/null cannot be polled, so they are read through
// the plain fallback.
func newInputReader(in io.Reader) (cancelreader.CancelReader, error) {
	if f, ok := in.(*os.File); ok && !pollable(f) {
		in = struct{ io.Reader }{f}
	}
	reader, err := cancelreader.NewReader(in)
	if err == nil {
		return reader, nil
	}
	return cancelreader.NewReader(struct{ io.Reader }{in})
}

func pollable(f *os.File) bool {
	if term.IsTerminal(int(f.Fd())) {
		return true
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeNamedPipe != 0
}

func terminalBarWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultBarWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultBarWidth
	}
	width -= 20
	if width < 10 {
		return 10
	}
	if width > 60 {
		return 60
	}
	return width
}
