package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

var userRowColumns = []string{"id", "username", "email", "password_hash", "role", "created_at"}

func TestUserRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("inserts the user", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		user := models.NewUser("alice", "alice@example.com", "hash", models.RoleMember)

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
			WithArgs(user.ID, "alice", "alice@example.com", "hash", "member", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.Create(ctx, user))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	constraintCases := []struct {
		constraint string
		want       error
	}{
		{"users_email_key", repositories.ErrDuplicateEmail},
		{"users_username_key", repositories.ErrDuplicateUsername},
	}
	for _, tc := range constraintCases {
		t.Run("maps "+tc.constraint, func(t *testing.T) {
			db, mock := newMockDB(t)
			repo := NewUserRepository(db, zap.NewNop())

			mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
				WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: tc.constraint})

			err := repo.Create(ctx, models.NewUser("bob", "bob@example.com", "hash", models.RoleMember))
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("other driver errors are wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).WillReturnError(sql.ErrConnDone)

		err := repo.Create(ctx, models.NewUser("bob", "bob@example.com", "hash", models.RoleMember))
		require.Error(t, err)
		assert.ErrorIs(t, err, sql.ErrConnDone)
		assert.NotErrorIs(t, err, repositories.ErrDuplicateEmail)
	})
}

func TestUserRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())
		id := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("carol@example.com").
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(id.String(), "carol", "carol@example.com", "hash", "manager", time.Now()))

		user, err := repo.GetByEmail(ctx, "carol@example.com")
		require.NoError(t, err)
		assert.Equal(t, id, user.ID)
		assert.Equal(t, models.RoleManager, user.Role)
		assert.Equal(t, "hash", user.PasswordHash)
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByEmail(ctx, "ghost@example.com")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
	})

	t.Run("unknown stored role fails the scan", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewUserRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1")).
			WillReturnRows(sqlmock.NewRows(userRowColumns).
				AddRow(uuid.New().String(), "dan", "dan@example.com", "hash", "superuser", time.Now()))

		_, err := repo.GetByEmail(ctx, "dan@example.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, repositories.ErrNotFound)
	})
}

func TestUserRepository_UpdateRole(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewUserRepository(db, zap.NewNop())
	id := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2 WHERE id = $1")).
		WithArgs(id, "admin").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateRole(ctx, id, models.RoleAdmin))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2 WHERE id = $1")).
		WithArgs(id, "member").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.UpdateRole(ctx, id, models.RoleMember), repositories.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeamRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("duplicate name", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTeamRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO teams")).
			WillReturnError(&pq.Error{Code: codeUniqueViolation, Constraint: "teams_name_key"})

		err := repo.Create(ctx, models.NewTeam("Core", nil, uuid.New()))
		assert.ErrorIs(t, err, repositories.ErrDuplicateTeamName)
	})

	t.Run("delete blocked by projects", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTeamRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teams")).
			WillReturnError(&pq.Error{Code: codeForeignKeyViolation})

		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), repositories.ErrStillReferenced)
	})

	t.Run("delete missing team", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTeamRepository(db, zap.NewNop())

		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teams")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), repositories.ErrNotFound)
	})
}

func TestTaskRepository_ListScope(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db, zap.NewNop())

	self := uuid.New()
	status := models.TaskStatusDone
	taskID, projectID := uuid.New(), uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM tasks t JOIN projects p ON p.id = t.project_id WHERE (p.manager_id = $1 OR t.assigned_to = $2) AND t.status = $3 ORDER BY t.due_date ASC NULLS LAST, t.created_at DESC")).
		WithArgs(self, self, "done").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "project_id", "assigned_to", "status", "due_date", "created_at"}).
			AddRow(taskID.String(), "Ship it", nil, projectID.String(), self.String(), "done", nil, time.Now()))

	tasks, err := repo.List(ctx, repositories.TaskFilter{ManagerID: &self, AssignedTo: &self, Status: &status})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, taskID, tasks[0].ID)
	assert.Nil(t, tasks[0].DueDate)
	assert.Nil(t, tasks[0].Description)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_ListUnscoped(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewTaskRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("SELECT t.id, t.title, t.description, t.project_id, t.assigned_to, t.status, t.due_date, t.created_at FROM tasks t  ORDER BY")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "project_id", "assigned_to", "status", "due_date", "created_at"}))

	tasks, err := repo.List(ctx, repositories.TaskFilter{})
	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.NotNil(t, tasks)
}

func TestProjectRepository_CountByStatus(t *testing.T) {
	ctx := context.Background()
	db, mock := newMockDB(t)
	repo := NewProjectRepository(db, zap.NewNop())
	member := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta(
		"FROM projects p WHERE (EXISTS (SELECT 1 FROM tasks t WHERE t.project_id = p.id AND t.assigned_to = $1)) GROUP BY p.status")).
		WithArgs(member).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("active", 2).
			AddRow("completed", 1))

	counts, err := repo.CountByStatus(ctx, repositories.ProjectFilter{ParticipantID: &member})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[models.ProjectStatusActive])
	assert.Equal(t, 1, counts[models.ProjectStatusCompleted])
}

func TestTransactionManager(t *testing.T) {
	ctx := context.Background()

	t.Run("statements run inside the transaction and commit", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())
		comments := NewCommentRepository(db, zap.NewNop())
		tasks := NewTaskRepository(db, zap.NewNop())
		projectID := uuid.New()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments")).WithArgs(projectID).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM tasks")).WithArgs(projectID).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err := tm.InTransaction(ctx, func(ctx context.Context, _ repositories.Transaction) error {
			if err := comments.DeleteByProject(ctx, projectID); err != nil {
				return err
			}
			return tasks.DeleteByProject(ctx, projectID)
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("error rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		tm := NewTransactionManager(db, zap.NewNop())
		boom := errors.New("boom")

		mock.ExpectBegin()
		mock.ExpectRollback()

		err := tm.InTransaction(ctx, func(context.Context, repositories.Transaction) error {
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDB_InitSchema(t *testing.T) {
	ctx := context.Background()

	t.Run("creates tables", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS users")).WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, db.InitSchema(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("wraps failures", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

		err := db.InitSchema(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to initialize schema")
	})
}
