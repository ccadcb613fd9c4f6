package backend

import (
	"fmt"

	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

type Factory struct {
	logger *applog.Logger
}

func NewFactory(logger *applog.Logger) *Factory {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// Create builds the store named by the config. The memory backend is
// for tests and local experiments; data does not survive a restart.
func (f *Factory) Create(cfg Config) (*Result, error) {
	switch cfg.Type {
	case SQLite:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite backend: %w", err)
		}
		f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: repo, Cleanup: repo.Close}, nil
	case Memory:
		f.logger.Info("Initialized in-memory backend")
		return &Result{Store: storage.NewMemoryStore(), Cleanup: func() error { return nil }}, nil
	default:
		return nil, fmt.Errorf("unsupported backend type %q", cfg.Type)
	}
}
