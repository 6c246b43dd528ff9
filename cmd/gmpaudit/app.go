package main

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/r3d91ll/gmpaudit/pkg/config"
	"github.com/r3d91ll/gmpaudit/pkg/photo"
	"github.com/r3d91ll/gmpaudit/pkg/report"
	"github.com/r3d91ll/gmpaudit/pkg/store"
)

// sqliteFile is the database name inside storage.path.
const sqliteFile = "form.db"

// app holds the collaborators shared by every command.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	backend   store.Backend
	store     *store.FormStore
	saver     *store.AutoSaver
	photos    *photo.Store
	paginator *report.Paginator
	report    report.Options
}

// openApp opens the configured backend and loads the form. withSaver starts
// the auto-saver for commands that edit the form.
func openApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, withSaver bool) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts, err := cfg.ReportOptions()
	if err != nil {
		return nil, err
	}
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	st, err := store.Open(ctx, backend)
	if err != nil {
		closeBackend(backend)
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		logger:    logger,
		backend:   backend,
		store:     st,
		photos:    photo.NewStore(cfg.Photos.Dir, cfg.PhotoOptions(), logger.Named("photo")),
		paginator: report.NewPaginator().WithLogger(logger.Named("report")),
		report:    opts,
	}
	if withSaver {
		a.saver = store.NewAutoSaver(st, backend, cfg.AutoSave.Delay, logger.Named("autosave"))
	}
	logger.Debug("form opened",
		zap.String("backend", backend.Name()),
		zap.Int("completion", st.Completion()))
	return a, nil
}

func openBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	sealer, err := cfg.Sealer()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(cfg.Storage.Backend) {
	case "sqlite":
		return store.OpenSQLite(ctx, filepath.Join(cfg.Storage.Path, sqliteFile), sealer)
	default:
		return store.NewFileBackend(cfg.Storage.Path, sealer), nil
	}
}

func closeBackend(b store.Backend) {
	if c, ok := b.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// Close flushes pending edits and releases the backend.
func (a *app) Close() error {
	var err error
	if a.saver != nil {
		err = a.saver.Close()
	}
	closeBackend(a.backend)
	return err
}

func defaultLogFile() string {
	return filepath.Join(config.DefaultDir(), "gmpaudit.log")
}
