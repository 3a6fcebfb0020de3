package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mattsolo1/grove-gallery/pkg/bridge"
)

func newWatchCmd() *cobra.Command {
	var helperPath string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Heckle the conversation open in the desktop chat app",
		Long: `Start the accessibility helper, find the chat app and comment on the
conversation as it happens. Stop with Ctrl-C.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, helperPath)
		},
	}
	cmd.Flags().StringVar(&helperPath, "helper", "", "Override the helper binary path")
	return cmd
}

func runWatch(ctx context.Context, helperPath string) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	log := a.logger("gallery")

	if helperPath == "" {
		helperPath = a.cfg.HelperPath
	}
	b := bridge.New(bridge.Options{HelperPath: helperPath, Logger: a.logger("bridge")})
	if err := b.Start(); err != nil {
		return fmt.Errorf("start accessibility helper: %w", err)
	}
	defer b.Close()

	source := bridge.NewSource(b, a.cfg.BundleID, a.logger("source"))
	if _, err := source.Snapshot(ctx); err != nil {
		var helperErr *bridge.Error
		switch {
		case errors.Is(err, bridge.ErrAppNotRunning):
			printWarning(os.Stderr, "Chat app not running yet; waiting for it to start")
		case errors.As(err, &helperErr) && helperErr.Navigation():
			log.Error("Could not read the chat window", "code", helperErr.Code, "error", helperErr.Message)
			printWarning(os.Stderr, "Accessibility navigation failed (%s). Check that the helper has Accessibility permission.", helperErr.Code)
		default:
			log.Warn("First read failed", "error", err)
		}
	}

	follow := func(ctx context.Context) error {
		source.Follow(ctx)
		return nil
	}
	giveUp := func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return nil
		case <-b.Fatal():
			return bridge.ErrGaveUp
		}
	}
	return a.runShow(ctx, source, follow, giveUp)
}
