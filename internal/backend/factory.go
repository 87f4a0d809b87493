package backend

import (
	"context"
	"fmt"
	"log/slog"

	"rcrao/internal/records/memory"
	"rcrao/internal/records/sheets"
	"rcrao/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &BackendResult{
		Store:   sqliteRepo,
		Ready:   sqliteRepo.Ping,
		Cleanup: sqliteRepo.Close,
	}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	store, err := sheets.New(ctx, sheets.Options{
		SpreadsheetID:    config.GoogleSpreadsheetID,
		CollectionsSheet: config.GoogleCollectionsSheet,
		ExpensesSheet:    config.GoogleExpensesSheet,
		ReceivablesSheet: config.GoogleReceivablesSheet,
		MaxAge:           config.SheetsCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend",
		"spreadsheet_id", config.GoogleSpreadsheetID,
		"cache_ttl", config.SheetsCacheTTL)

	return &BackendResult{
		Store: store,
		Ready: store.Ping,
	}, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	store := memory.New()
	if config.DataDirectory != "" {
		seeded, err := memory.NewFromFiles(config.DataDirectory)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory backend seeds: %w", err)
		}
		store = seeded
	}

	collections, expenses, receivables := store.Counts()
	f.logger.Info("Initialized memory backend",
		"data_directory", config.DataDirectory,
		"collections", collections,
		"expenses", expenses,
		"receivables", receivables)

	return &BackendResult{
		Store: store,
		Ready: func(context.Context) error { return nil },
	}, nil
}
