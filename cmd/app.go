package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/mattsolo1/grove-gallery/pkg/characters"
	"github.com/mattsolo1/grove-gallery/pkg/engine"
	"github.com/mattsolo1/grove-gallery/pkg/llm"
	"github.com/mattsolo1/grove-gallery/pkg/logging"
	"github.com/mattsolo1/grove-gallery/pkg/session"
	"github.com/mattsolo1/grove-gallery/pkg/settings"
)

// app bundles what every long-running command needs.
type app struct {
	cfg    *GalleryConfig
	root   *logging.Root
	store  *settings.Store
	engine *engine.Engine
}

func (a *app) logger(component string) logging.Logger {
	return a.root.New(component)
}

func (a *app) Close() {
	a.root.Close()
}

// newApp loads config and settings and builds the engine.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadGalleryConfig(configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	root, err := logging.NewRoot(logging.Options{Level: level, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}

	path, err := cfg.settingsPath()
	if err != nil {
		root.Close()
		return nil, err
	}
	store := settings.NewStore(path)
	current, err := store.Load()
	if err != nil {
		root.Close()
		return nil, err
	}

	gen, err := llm.New(ctx, cfg.llmOptions())
	if err != nil {
		root.Close()
		return nil, fmt.Errorf("commentary disabled: %w", err)
	}

	engCfg := cfg.engineConfig()
	engCfg.Logger = root.New("engine")
	eng := engine.New(gen, current.ActiveCharacters, engCfg)

	enabled := characters.Enabled(current.ActiveCharacters)
	root.New("gallery").Info("Character engine ready",
		"provider", cfg.Provider, "characters", len(current.ActiveCharacters), "enabled", len(enabled))

	return &app{cfg: cfg, root: root, store: store, engine: eng}, nil
}

// runShow polls source until ctx ends while the settings watcher keeps the
// roster current. extra goroutines join the same group.
func (a *app) runShow(ctx context.Context, source session.Source, extra ...func(context.Context) error) error {
	sessCfg := a.cfg.sessionConfig()
	sessCfg.Logger = a.logger("session")
	sess := session.New(source, a.engine, newTerminalSink(os.Stdout), sessCfg)
	defer sess.Close()

	if err := os.MkdirAll(filepath.Dir(a.store.Path()), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	watcher := settings.NewWatcher(a.store, a.logger("settings"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sess.Run(ctx) })
	g.Go(func() error { return watcher.Run(ctx, a.engine.SetCharacters) })
	for _, fn := range extra {
		fn := fn
		g.Go(func() error { return fn(ctx) })
	}
	return g.Wait()
}
