package task

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/example/task-crud-demo/domain/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Create(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	task, err := svc.Create(ctx, []byte(`{"title":"Buy milk"}`))
	require.NoError(t, err)

	assert.NotZero(t, task.ID)
	assert.Equal(t, "Buy milk", task.Title)
	assert.Nil(t, task.Description)
	assert.False(t, task.Completed)
	assert.True(t, task.CreatedAt.Equal(task.UpdatedAt), "created_at should equal updated_at")

	stored, err := domain.NewRepository(db).FindByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.Title, stored.Title)
	assert.True(t, stored.CreatedAt.Equal(task.CreatedAt))
}

func TestService_Create_ValidationPersistsNothing(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	bodies := []string{
		`{}`,
		`{"title":""}`,
		`{"title":"` + strings.Repeat("a", 256) + `"}`,
	}
	for _, body := range bodies {
		_, err := svc.Create(ctx, []byte(body))

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "title")
	}

	var count int64
	require.NoError(t, db.Model(&domain.Task{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestService_List_NewestFirst(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	tick := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}

	var ids []uint
	for _, title := range []string{"A", "B", "C"} {
		task, err := svc.Create(ctx, []byte(`{"title":"`+title+`"}`))
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}

	tasks, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, ids[2], tasks[0].ID)
	assert.Equal(t, ids[1], tasks[1].ID)
	assert.Equal(t, ids[0], tasks[2].ID)
}

func TestService_Update_CompletedOnly(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, []byte(`{"title":"Buy milk","description":"2 liters"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, []byte(`{"completed":true}`))
	require.NoError(t, err)

	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "2 liters", *updated.Description)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt), "created_at must not change")
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt), "updated_at must advance")
}

func TestService_Update_UpdatedAtAdvancesWithinTick(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	frozen := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	created, err := svc.Create(ctx, []byte(`{"title":"Frozen"}`))
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, []byte(`{"title":"Still frozen"}`))
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestService_Update_Fields(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, []byte(`{"title":"Old","description":"Keep me"}`))
	require.NoError(t, err)

	t.Run("title replaced", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, []byte(`{"title":"New"}`))
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "Keep me", *updated.Description)
	})

	t.Run("description cleared", func(t *testing.T) {
		updated, err := svc.Update(ctx, created.ID, []byte(`{"description":null}`))
		require.NoError(t, err)
		assert.Nil(t, updated.Description)

		stored, err := domain.NewRepository(db).FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Nil(t, stored.Description)
		assert.Equal(t, "New", stored.Title)
	})

	t.Run("invalid title leaves record unchanged", func(t *testing.T) {
		before, err := domain.NewRepository(db).FindByID(ctx, created.ID)
		require.NoError(t, err)

		_, err = svc.Update(ctx, created.ID, []byte(`{"title":"","completed":true}`))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, []string{"The title field is required."}, verr.Fields["title"])

		after, err := domain.NewRepository(db).FindByID(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Title, after.Title)
		assert.Equal(t, before.Completed, after.Completed)
		assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
	})
}

func TestService_Update_NotFound(t *testing.T) {
	svc, db := setupService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, 999, []byte(`{"completed":true}`))
	assert.ErrorIs(t, err, ErrTaskNotFound)

	// Not found wins over an invalid body.
	_, err = svc.Update(ctx, 999, []byte(`{"title":""}`))
	assert.ErrorIs(t, err, ErrTaskNotFound)

	var count int64
	require.NoError(t, db.Model(&domain.Task{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestService_Delete(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	keep, err := svc.Create(ctx, []byte(`{"title":"Keep"}`))
	require.NoError(t, err)
	gone, err := svc.Create(ctx, []byte(`{"title":"Gone"}`))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, gone.ID))

	tasks, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, keep.ID, tasks[0].ID)

	assert.ErrorIs(t, svc.Delete(ctx, gone.ID), ErrTaskNotFound)
}

func TestService_Delete_IDNotReused(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, []byte(`{"title":"First"}`))
	require.NoError(t, err)
	second, err := svc.Create(ctx, []byte(`{"title":"Second"}`))
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, second.ID))

	third, err := svc.Create(ctx, []byte(`{"title":"Third"}`))
	require.NoError(t, err)
	assert.Greater(t, third.ID, first.ID)
	assert.NotEqual(t, second.ID, third.ID)
}

func TestService_PersistenceErrors(t *testing.T) {
	ctx := context.Background()
	existing := &domain.Task{ID: 1, Title: "Existing", CreatedAt: domain.Now(), UpdatedAt: domain.Now()}

	tests := []struct {
		name   string
		store  *failingStore
		run    func(s *Service) error
		wantOp Op
	}{
		{
			name:   "list",
			store:  &failingStore{listErr: errStoreDown},
			run:    func(s *Service) error { _, err := s.List(ctx); return err },
			wantOp: OpList,
		},
		{
			name:   "create",
			store:  &failingStore{createErr: errStoreDown},
			run:    func(s *Service) error { _, err := s.Create(ctx, []byte(`{"title":"x"}`)); return err },
			wantOp: OpCreate,
		},
		{
			name:   "update lookup",
			store:  &failingStore{findErr: errStoreDown},
			run:    func(s *Service) error { _, err := s.Update(ctx, 1, []byte(`{}`)); return err },
			wantOp: OpUpdate,
		},
		{
			name:   "update write",
			store:  &failingStore{tasks: map[uint]*domain.Task{1: existing}, updateErr: errStoreDown},
			run:    func(s *Service) error { _, err := s.Update(ctx, 1, []byte(`{"completed":true}`)); return err },
			wantOp: OpUpdate,
		},
		{
			name:   "delete lookup",
			store:  &failingStore{findErr: errStoreDown},
			run:    func(s *Service) error { return s.Delete(ctx, 1) },
			wantOp: OpDelete,
		},
		{
			name:   "delete write",
			store:  &failingStore{tasks: map[uint]*domain.Task{1: existing}, deleteErr: errStoreDown},
			run:    func(s *Service) error { return s.Delete(ctx, 1) },
			wantOp: OpDelete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.store, nil, &mockLogger{})

			err := tt.run(svc)

			var perr *PersistenceError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.wantOp, perr.Op)
			assert.True(t, errors.Is(err, errStoreDown))
		})
	}
}

func TestService_ConcurrentDeleteIsNotFound(t *testing.T) {
	existing := &domain.Task{ID: 7, Title: "Racing", CreatedAt: domain.Now(), UpdatedAt: domain.Now()}
	store := &failingStore{
		tasks:     map[uint]*domain.Task{7: existing},
		updateErr: domain.ErrNotFound,
		deleteErr: domain.ErrNotFound,
	}
	svc := NewService(store, nil, &mockLogger{})
	ctx := context.Background()

	_, err := svc.Update(ctx, 7, []byte(`{"completed":true}`))
	assert.ErrorIs(t, err, ErrTaskNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, 7), ErrTaskNotFound)
}

func TestOp_FailureMessage(t *testing.T) {
	assert.Equal(t, "Failed to retrieve tasks", OpList.FailureMessage())
	assert.Equal(t, "Failed to create task", OpCreate.FailureMessage())
	assert.Equal(t, "Failed to update task", OpUpdate.FailureMessage())
	assert.Equal(t, "Failed to delete task", OpDelete.FailureMessage())
}
