package backend

import (
	"context"
	"fmt"

	"presupuesto/internal/adapters"
	"presupuesto/internal/amqp"
	"presupuesto/internal/log"
	"presupuesto/internal/store"
	"presupuesto/internal/store/file"
	"presupuesto/internal/store/google"
	"presupuesto/internal/store/memory"
	"presupuesto/internal/store/sqlite"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (adapters.Publisher, error)
}

func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
		dialAMQP: func(url, exchange, queue string) (adapters.Publisher, error) {
			return amqp.NewClient(url, exchange, queue)
		},
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend builds the adapter selected by config and, when an AMQP URL
// is configured, decorates it with change-event publishing. A broker that
// cannot be reached disables publishing instead of failing startup.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var (
		adapter store.Adapter
		err     error
	)
	switch config.Type {
	case FileBackend:
		adapter, err = f.createFileBackend(config)
	case SQLiteBackend:
		adapter, err = f.createSQLiteBackend(config)
	case SheetsBackend:
		adapter, err = f.createSheetsBackend(ctx, config)
	case MemoryBackend:
		adapter = memory.New()
		f.logger.Info("Initialized memory backend")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
	if err != nil {
		return nil, err
	}

	result := &BackendResult{Adapter: adapter, Cleanup: closerFor(adapter)}
	if config.AMQPURL == "" {
		return result, nil
	}

	publisher, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without change events",
			log.FieldError, err,
			log.FieldBackend, config.Type)
		return result, nil
	}
	f.logger.Info("Initialized AMQP client",
		"exchange", config.AMQPExchange,
		"queue", config.AMQPQueue)

	publishing := adapters.NewPublishingAdapter(adapter, publisher)
	return &BackendResult{
		Adapter:    publishing,
		Publishing: true,
		Cleanup:    publishing.Close,
	}, nil
}

func (f *DefaultFactory) createFileBackend(config Config) (store.Adapter, error) {
	st := file.New(config.DataDirectory)
	f.logger.Info("Initialized document file backend", "data_directory", config.DataDirectory)
	return st, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (store.Adapter, error) {
	repo, err := sqlite.NewRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return repo, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (store.Adapter, error) {
	cli, err := google.New(ctx, google.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		CredentialsJSON: config.GoogleServiceAccountJSON,
		CredentialsFile: config.GoogleServiceAccountFile,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return cli, nil
}

func closerFor(a store.Adapter) CleanupFunc {
	if c, ok := a.(store.Closer); ok {
		return c.Close
	}
	return func() error { return nil }
}
