package task

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/repositories/memory"
	"github.com/upb/task-tracker/services"
	"go.uber.org/zap"
)

type fixture struct {
	svc     *Service
	repos   *repositories.Repositories
	admin   *models.User
	manager *models.User
	rival   *models.User
	member  *models.User
	bystand *models.User
	managed *models.Project
	foreign *models.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	repos := store.Repositories()

	f := &fixture{
		svc:     NewService(repos, store.TransactionManager(), policy.NewEvaluator(), zap.NewNop()),
		repos:   repos,
		admin:   models.NewUser("admin", "admin@x.com", "h", models.RoleAdmin),
		manager: models.NewUser("manager", "manager@x.com", "h", models.RoleManager),
		rival:   models.NewUser("rival", "rival@x.com", "h", models.RoleManager),
		member:  models.NewUser("member", "member@x.com", "h", models.RoleMember),
		bystand: models.NewUser("bystander", "by@x.com", "h", models.RoleMember),
	}
	for _, u := range []*models.User{f.admin, f.manager, f.rival, f.member, f.bystand} {
		require.NoError(t, repos.Users.Create(ctx, u))
	}

	team := models.NewTeam("team", nil, f.admin.ID)
	require.NoError(t, repos.Teams.Create(ctx, team))
	f.managed = models.NewProject("managed", team.ID, f.manager.ID)
	f.foreign = models.NewProject("foreign", team.ID, f.rival.ID)
	require.NoError(t, repos.Projects.Create(ctx, f.managed))
	require.NoError(t, repos.Projects.Create(ctx, f.foreign))
	return f
}

func (f *fixture) seedTask(t *testing.T, project *models.Project, assignee *models.User, status models.TaskStatus, due *time.Time) *models.Task {
	t.Helper()
	task := models.NewTask("t-"+uuid.NewString()[:8], project.ID, assignee.ID)
	task.Status = status
	task.DueDate = due
	require.NoError(t, f.repos.Tasks.Create(context.Background(), task))
	return task
}

func strPtr(s string) *string { return &s }

func ids(tasks []*models.Task) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.ID)
	}
	return out
}

func TestService_List(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(48 * time.Hour)

	inManaged := f.seedTask(t, f.managed, f.member, models.TaskStatusTodo, &late)
	assignedToManager := f.seedTask(t, f.foreign, f.manager, models.TaskStatusDone, &early)
	unrelated := f.seedTask(t, f.foreign, f.bystand, models.TaskStatusTodo, nil)

	t.Run("admin sees all ordered by due date with undated last", func(t *testing.T) {
		tasks, err := f.svc.List(ctx, f.admin, "")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{assignedToManager.ID, inManaged.ID, unrelated.ID}, ids(tasks))
	})

	t.Run("manager sees managed projects and own assignments", func(t *testing.T) {
		tasks, err := f.svc.List(ctx, f.manager, "all")
		require.NoError(t, err)
		assert.ElementsMatch(t, []uuid.UUID{inManaged.ID, assignedToManager.ID}, ids(tasks))
	})

	t.Run("member sees assignments only", func(t *testing.T) {
		tasks, err := f.svc.List(ctx, f.member, "")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{inManaged.ID}, ids(tasks))
	})

	t.Run("status filter is ANDed with the scope", func(t *testing.T) {
		tasks, err := f.svc.List(ctx, f.manager, "done")
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{assignedToManager.ID}, ids(tasks))
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.svc.List(ctx, f.admin, "blocked")
		require.Error(t, err)
		assert.True(t, services.IsValidationError(err))
		assert.Equal(t, "Invalid status filter: blocked", services.GetErrorMessage(err))
	})
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("manager in managed project", func(t *testing.T) {
		task, err := f.svc.Create(ctx, f.manager, CreateInput{Title: "Write", ProjectID: f.managed.ID, AssignedTo: f.member.ID})
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusTodo, task.Status)
	})

	t.Run("manager in foreign project", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.manager, CreateInput{Title: "Write", ProjectID: f.foreign.ID, AssignedTo: f.member.ID})
		require.ErrorIs(t, err, services.ErrForbidden)
		assert.Equal(t, "You can only create tasks for projects you manage", services.GetErrorMessage(err))
	})

	t.Run("admin in any project with explicit status", func(t *testing.T) {
		task, err := f.svc.Create(ctx, f.admin, CreateInput{Title: "Ship", ProjectID: f.foreign.ID, AssignedTo: f.member.ID, Status: strPtr("in_progress")})
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusInProgress, task.Status)
	})

	t.Run("member", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.member, CreateInput{Title: "x", ProjectID: f.managed.ID, AssignedTo: f.member.ID})
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("missing project", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.admin, CreateInput{Title: "x", ProjectID: uuid.New(), AssignedTo: f.member.ID})
		assert.ErrorIs(t, err, services.ErrProjectNotFound)
	})

	t.Run("missing assignee", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.admin, CreateInput{Title: "x", ProjectID: f.managed.ID, AssignedTo: uuid.New()})
		require.ErrorIs(t, err, services.ErrAssigneeNotFound)
		assert.True(t, services.IsNotFoundError(err))
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := f.svc.Create(ctx, f.admin, CreateInput{Title: "x", ProjectID: f.managed.ID, AssignedTo: f.member.ID, Status: strPtr("blocked")})
		require.Error(t, err)
		assert.Contains(t, services.GetErrorDetails(err), "status")
	})
}

func TestService_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("member assignee changes status", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.foreign, f.member, models.TaskStatusTodo, nil)

		got, err := f.svc.Update(ctx, f.member, task.ID, UpdateInput{Status: strPtr("done"), Fields: []string{"status"}})
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusDone, got.Status)
	})

	t.Run("member request with status and title is refused whole", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.foreign, f.member, models.TaskStatusTodo, nil)

		_, err := f.svc.Update(ctx, f.member, task.ID, UpdateInput{Status: strPtr("done"), Title: strPtr("x")})
		require.ErrorIs(t, err, services.ErrForbidden)
		assert.Equal(t, "Members can only update task status", services.GetErrorMessage(err))

		stored, err := f.repos.Tasks.GetByID(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusTodo, stored.Status)
		assert.Equal(t, task.Title, stored.Title)
	})

	t.Run("null field still counts as present", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.foreign, f.member, models.TaskStatusTodo, nil)

		_, err := f.svc.Update(ctx, f.member, task.ID, UpdateInput{Status: strPtr("done"), Fields: []string{"status", "due_date"}})
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("member not assigned", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.foreign, f.bystand, models.TaskStatusTodo, nil)

		_, err := f.svc.Update(ctx, f.member, task.ID, UpdateInput{Status: strPtr("done")})
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("manager assigned in a foreign project", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.foreign, f.manager, models.TaskStatusTodo, nil)

		got, err := f.svc.Update(ctx, f.manager, task.ID, UpdateInput{Title: strPtr("Retitled"), Status: strPtr("in_progress")})
		require.NoError(t, err)
		assert.Equal(t, "Retitled", got.Title)
		assert.Equal(t, models.TaskStatusInProgress, got.Status)
	})

	t.Run("manager of the project reassigns", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.managed, f.member, models.TaskStatusTodo, nil)

		got, err := f.svc.Update(ctx, f.manager, task.ID, UpdateInput{AssignedTo: &f.bystand.ID})
		require.NoError(t, err)
		assert.Equal(t, f.bystand.ID, got.AssignedTo)
	})

	t.Run("unrelated manager", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.foreign, f.member, models.TaskStatusTodo, nil)

		_, err := f.svc.Update(ctx, f.manager, task.ID, UpdateInput{Status: strPtr("done")})
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("reassign to missing user", func(t *testing.T) {
		f := newFixture(t)
		task := f.seedTask(t, f.managed, f.member, models.TaskStatusTodo, nil)
		missing := uuid.New()

		_, err := f.svc.Update(ctx, f.admin, task.ID, UpdateInput{AssignedTo: &missing})
		assert.ErrorIs(t, err, services.ErrAssigneeNotFound)
	})

	t.Run("missing task", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Update(ctx, f.admin, uuid.New(), UpdateInput{Status: strPtr("done")})
		assert.ErrorIs(t, err, services.ErrTaskNotFound)
	})
}

func TestService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	task := f.seedTask(t, f.managed, f.member, models.TaskStatusTodo, nil)
	require.NoError(t, f.repos.Comments.Create(ctx, models.NewComment(task.ID, f.member.ID, "first")))

	t.Run("get", func(t *testing.T) {
		_, err := f.svc.Get(ctx, f.member, task.ID)
		assert.NoError(t, err)
		_, err = f.svc.Get(ctx, f.manager, task.ID)
		assert.NoError(t, err)
		_, err = f.svc.Get(ctx, f.bystand, task.ID)
		assert.ErrorIs(t, err, services.ErrForbidden)
		_, err = f.svc.Get(ctx, f.rival, task.ID)
		assert.ErrorIs(t, err, services.ErrForbidden)
	})

	t.Run("only admins delete", func(t *testing.T) {
		err := f.svc.Delete(ctx, f.manager, task.ID)
		require.ErrorIs(t, err, services.ErrForbidden)
		assert.Equal(t, "Only admins can delete tasks", services.GetErrorMessage(err))
	})

	t.Run("admin delete removes comments", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, f.admin, task.ID))

		_, err := f.repos.Tasks.GetByID(ctx, task.ID)
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		comments, err := f.repos.Comments.ListByTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Empty(t, comments)
	})

	t.Run("delete missing", func(t *testing.T) {
		assert.ErrorIs(t, f.svc.Delete(ctx, f.admin, task.ID), services.ErrTaskNotFound)
	})
}

func TestUpdateInput_Present(t *testing.T) {
	due := time.Now()
	in := UpdateInput{Title: strPtr("x"), Status: strPtr("done"), DueDate: &due}
	assert.ElementsMatch(t, []string{"title", "status", "due_date"}, in.present())

	in.Fields = []string{"description"}
	assert.Equal(t, []string{"description"}, in.present())
}
