package backend

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"presupuesto/internal/adapters"
	"presupuesto/internal/amqp"
	"presupuesto/internal/config"
	"presupuesto/internal/core"
	"presupuesto/internal/log"
	"presupuesto/internal/store"
	"presupuesto/internal/store/file"
	"presupuesto/internal/store/memory"
	"presupuesto/internal/store/sqlite"
)

type stubPublisher struct {
	events []*amqp.MovementEvent
	closed bool
}

func (p *stubPublisher) Publish(ctx context.Context, ev *amqp.MovementEvent) error {
	p.events = append(p.events, ev)
	return nil
}

func (p *stubPublisher) Close() error {
	p.closed = true
	return nil
}

func quietFactory(buf *bytes.Buffer) *DefaultFactory {
	return NewFactory(log.New(log.Config{Level: slog.LevelDebug, Format: "text", Output: buf}))
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:  "sqlite",
		DataDir:      "/tmp/data",
		SQLiteDBPath: "/tmp/data/p.db",
		AMQPURL:      "amqp://localhost",
		AMQPExchange: "presupuesto",
		AMQPQueue:    "movement_events",
	}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/data/p.db", cfg.SQLiteDBPath)
	assert.Equal(t, "amqp://localhost", cfg.AMQPURL)

	mirror := cfg.WithType(SheetsBackend)
	assert.Equal(t, SheetsBackend, mirror.Type)
	assert.Empty(t, mirror.AMQPURL)
	assert.Equal(t, "amqp://localhost", cfg.AMQPURL, "original config is unchanged")

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)
	_, err = FromAppConfig(nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"file ok", Config{Type: FileBackend, DataDirectory: "data"}, false},
		{"file without dir", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets without id", Config{Type: SheetsBackend}, true},
		{"memory ok", Config{Type: MemoryBackend}, false},
		{"unknown", Config{Type: "csv"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateBackendTypes(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	f := quietFactory(&buf)
	ctx := context.Background()

	res, err := f.CreateBackend(ctx, Config{Type: FileBackend, DataDirectory: dir})
	require.NoError(t, err)
	assert.IsType(t, &file.Store{}, res.Adapter)
	assert.False(t, res.Publishing)
	require.NoError(t, res.Cleanup())

	res, err = f.CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "db", "p.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.Repository{}, res.Adapter)
	require.NoError(t, res.Cleanup())

	res, err = f.CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, res.Adapter)
	require.NoError(t, res.Cleanup())

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err = f.CreateBackend(ctx, Config{Type: SheetsBackend, GoogleSpreadsheetID: "sheet"})
	assert.Error(t, err, "sheets without credentials must fail")
}

func TestCreateBackendWithPublishing(t *testing.T) {
	var buf bytes.Buffer
	f := quietFactory(&buf)
	pub := &stubPublisher{}
	f.dialAMQP = func(url, exchange, queue string) (adapters.Publisher, error) { return pub, nil }

	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://broker", AMQPExchange: "e", AMQPQueue: "q",
	})
	require.NoError(t, err)
	require.True(t, res.Publishing)
	_, ok := res.Adapter.(store.UserLister)
	assert.True(t, ok)

	l := core.NewLedger("ana")
	m := core.Movement{ID: "m1", Kind: core.Income, Category: "Salario", Amount: core.Money{Cents: 100}}
	require.NoError(t, res.Adapter.Append(context.Background(), l.WithAppended(m), m))
	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventCreated, pub.events[0].Type)

	require.NoError(t, res.Cleanup())
	assert.True(t, pub.closed)
}

func TestCreateBackendBrokerDownContinues(t *testing.T) {
	var buf bytes.Buffer
	f := quietFactory(&buf)
	f.dialAMQP = func(url, exchange, queue string) (adapters.Publisher, error) {
		return nil, errors.New("connection refused")
	}

	res, err := f.CreateBackend(context.Background(), Config{
		Type: MemoryBackend, AMQPURL: "amqp://broker", AMQPExchange: "e", AMQPQueue: "q",
	})
	require.NoError(t, err)
	assert.False(t, res.Publishing)
	assert.IsType(t, &memory.Store{}, res.Adapter)
	assert.Contains(t, buf.String(), "continuing without change events")
}
