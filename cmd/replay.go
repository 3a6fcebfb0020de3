package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-gallery/pkg/session"
)

var errShowOver = errors.New("replay finished")

func newReplayCmd() *cobra.Command {
	var (
		interval time.Duration
		linger   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "replay <file.jsonl>",
		Short: "Heckle a recorded conversation",
		Long: `Play back a JSON Lines recording of conversation snapshots, one per poll,
through the same pipeline as watch. Useful for demos and for trying
characters without the desktop app.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runReplay(ctx, args[0], interval, linger)
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval override (default from config)")
	cmd.Flags().DurationVar(&linger, "linger", 15*time.Second, "How long to keep going after the last snapshot")
	return cmd
}

func runReplay(ctx context.Context, path string, interval, linger time.Duration) error {
	source, err := session.LoadReplay(path)
	if err != nil {
		return err
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	if interval > 0 {
		a.cfg.PollInterval = interval
	}
	a.logger("gallery").Info("Replaying", "file", path, "snapshots", source.Len())

	finish := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return nil
		case <-source.Done():
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(linger):
			return errShowOver
		}
	}

	err = a.runShow(ctx, source, finish)
	if errors.Is(err, errShowOver) {
		return nil
	}
	return err
}
