package task

import (
	"context"
	"errors"
	"sync"
	"testing"

	domain "github.com/example/task-crud-demo/domain/task"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: domain.Now,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := domain.NewRepository(db).Migrate(); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// setupService creates a service over a fresh in-memory database.
func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	return NewService(domain.NewRepository(db), nil, &mockLogger{}), db
}

var errStoreDown = errors.New("database is locked")

// failingStore implements Store and fails every call that has an error set.
type failingStore struct {
	tasks     map[uint]*domain.Task
	createErr error
	findErr   error
	listErr   error
	updateErr error
	deleteErr error
}

func (f *failingStore) Create(_ context.Context, task *domain.Task) error {
	return f.createErr
}

func (f *failingStore) FindByID(_ context.Context, id uint) (*domain.Task, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	task, ok := f.tasks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *task
	return &copied, nil
}

func (f *failingStore) List(_ context.Context) ([]domain.Task, error) {
	return nil, f.listErr
}

func (f *failingStore) Update(_ context.Context, _ *domain.Task) error {
	return f.updateErr
}

func (f *failingStore) Delete(_ context.Context, _ uint) error {
	return f.deleteErr
}

// recordingBus implements mono.EventBus and records every published message.
// Event definitions publish through PublishMsg only; the other methods are
// left to the embedded nil interface.
type recordingBus struct {
	types.EventBus

	mu       sync.Mutex
	messages []*types.Msg
	err      error
}

func (b *recordingBus) PublishMsg(msg *types.Msg) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return b.err
}

func (b *recordingBus) published() []*types.Msg {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*types.Msg(nil), b.messages...)
}
