// Package memory provides in-process repositories with the same contracts
// as the PostgreSQL ones: uniqueness rules, not-found and reference errors,
// list ordering and filter semantics. Service tests run against it.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
)

// Store holds every table behind one lock
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	teams    map[uuid.UUID]models.Team
	projects map[uuid.UUID]models.Project
	tasks    map[uuid.UUID]models.Task
	comments map[uuid.UUID]models.Comment
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{
		users:    make(map[uuid.UUID]models.User),
		teams:    make(map[uuid.UUID]models.Team),
		projects: make(map[uuid.UUID]models.Project),
		tasks:    make(map[uuid.UUID]models.Task),
		comments: make(map[uuid.UUID]models.Comment),
	}
}

// Repositories returns repositories backed by s
func (s *Store) Repositories() *repositories.Repositories {
	return &repositories.Repositories{
		Users:    &userRepo{s},
		Teams:    &teamRepo{s},
		Projects: &projectRepo{s},
		Tasks:    &taskRepo{s},
		Comments: &commentRepo{s},
	}
}

// TransactionManager returns a manager whose transactions only scope the
// callback; writes are applied immediately and are not undone on rollback.
func (s *Store) TransactionManager() repositories.TransactionManager {
	return txManager{}
}

type txManager struct{}

func (txManager) Begin(ctx context.Context) (repositories.Transaction, error) {
	return tx{ctx: ctx}, nil
}

func (m txManager) InTransaction(ctx context.Context, fn func(ctx context.Context, tx repositories.Transaction) error) error {
	t, _ := m.Begin(ctx)
	if err := fn(t.Context(), t); err != nil {
		_ = t.Rollback()
		return err
	}
	return t.Commit()
}

type tx struct {
	ctx context.Context
}

func (t tx) Commit() error { return nil }
func (t tx) Rollback() error { return nil }
func (t tx) Context() context.Context { return t.ctx }

type userRepo struct{ s *Store }

func (r *userRepo) Create(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Email == user.Email {
			return repositories.ErrDuplicateEmail
		}
		if u.Username == user.Username {
			return repositories.ErrDuplicateUsername
		}
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r *userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.users {
		if match(u) {
			found := u
			return &found, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *userRepo) UpdateRole(ctx context.Context, id uuid.UUID, role models.Role) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	u.Role = role
	r.s.users[id] = u
	return nil
}

func (r *userRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.users), nil
}

type teamRepo struct{ s *Store }

func (r *teamRepo) Create(ctx context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTaken(team.Name, team.ID) {
		return repositories.ErrDuplicateTeamName
	}
	r.s.teams[team.ID] = *team
	return nil
}

func (r *teamRepo) nameTaken(name string, except uuid.UUID) bool {
	for _, t := range r.s.teams {
		if t.Name == name && t.ID != except {
			return true
		}
	}
	return false
}

func (r *teamRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *teamRepo) List(ctx context.Context) ([]*models.Team, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	teams := make([]*models.Team, 0, len(r.s.teams))
	for _, t := range r.s.teams {
		t := t
		teams = append(teams, &t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}

func (r *teamRepo) Update(ctx context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[team.ID]; !ok {
		return repositories.ErrNotFound
	}
	if r.nameTaken(team.Name, team.ID) {
		return repositories.ErrDuplicateTeamName
	}
	r.s.teams[team.ID] = *team
	return nil
}

func (r *teamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.teams[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, p := range r.s.projects {
		if p.TeamID == id {
			return repositories.ErrStillReferenced
		}
	}
	delete(r.s.teams, id)
	return nil
}

func (r *teamRepo) Count(ctx context.Context) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return len(r.s.teams), nil
}

type projectRepo struct{ s *Store }

func (r *projectRepo) Create(ctx context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &p, nil
}

func (r *projectRepo) matches(p models.Project, f repositories.ProjectFilter) bool {
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	if f.ManagerID == nil && f.ParticipantID == nil {
		return true
	}
	if f.ManagerID != nil && p.ManagerID == *f.ManagerID {
		return true
	}
	if f.ParticipantID != nil {
		for _, t := range r.s.tasks {
			if t.ProjectID == p.ID && t.AssignedTo == *f.ParticipantID {
				return true
			}
		}
	}
	return false
}

func (r *projectRepo) List(ctx context.Context, filter repositories.ProjectFilter) ([]*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	projects := []*models.Project{}
	for _, p := range r.s.projects {
		if r.matches(p, filter) {
			p := p
			projects = append(projects, &p)
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].CreatedAt.After(projects[j].CreatedAt) })
	return projects, nil
}

func (r *projectRepo) Update(ctx context.Context, project *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[project.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.projects[project.ID] = *project
	return nil
}

func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, t := range r.s.tasks {
		if t.ProjectID == id {
			return repositories.ErrStillReferenced
		}
	}
	delete(r.s.projects, id)
	return nil
}

func (r *projectRepo) CountByStatus(ctx context.Context, filter repositories.ProjectFilter) (map[models.ProjectStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[models.ProjectStatus]int)
	for _, p := range r.s.projects {
		if r.matches(p, filter) {
			counts[p.Status]++
		}
	}
	return counts, nil
}

type taskRepo struct{ s *Store }

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	t, ok := r.s.tasks[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r *taskRepo) matches(t models.Task, f repositories.TaskFilter) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.ManagerID == nil && f.AssignedTo == nil {
		return true
	}
	if f.AssignedTo != nil && t.AssignedTo == *f.AssignedTo {
		return true
	}
	if f.ManagerID != nil {
		if p, ok := r.s.projects[t.ProjectID]; ok && p.ManagerID == *f.ManagerID {
			return true
		}
	}
	return false
}

// List orders by due date with undated tasks last, then newest first
func (r *taskRepo) List(ctx context.Context, filter repositories.TaskFilter) ([]*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	tasks := []*models.Task{}
	for _, t := range r.s.tasks {
		if r.matches(t, filter) {
			t := t
			tasks = append(tasks, &t)
		}
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		switch {
		case a.DueDate != nil && b.DueDate == nil:
			return true
		case a.DueDate == nil && b.DueDate != nil:
			return false
		case a.DueDate != nil && !a.DueDate.Equal(*b.DueDate):
			return a.DueDate.Before(*b.DueDate)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return tasks, nil
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[task.ID]; !ok {
		return repositories.ErrNotFound
	}
	r.s.tasks[task.ID] = *task
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tasks[id]; !ok {
		return repositories.ErrNotFound
	}
	for _, c := range r.s.comments {
		if c.TaskID == id {
			return repositories.ErrStillReferenced
		}
	}
	delete(r.s.tasks, id)
	return nil
}

func (r *taskRepo) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, t := range r.s.tasks {
		if t.ProjectID == projectID {
			delete(r.s.tasks, id)
		}
	}
	return nil
}

func (r *taskRepo) CountByStatus(ctx context.Context, filter repositories.TaskFilter) (map[models.TaskStatus]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	counts := make(map[models.TaskStatus]int)
	for _, t := range r.s.tasks {
		if r.matches(t, filter) {
			counts[t.Status]++
		}
	}
	return counts, nil
}

type commentRepo struct{ s *Store }

func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.comments[comment.ID] = *comment
	return nil
}

func (r *commentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*models.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	comments := []*models.Comment{}
	for _, c := range r.s.comments {
		if c.TaskID != taskID {
			continue
		}
		c := c
		c.AuthorName = "Unknown"
		if u, ok := r.s.users[c.AuthorID]; ok {
			c.AuthorName = u.Username
		}
		comments = append(comments, &c)
	}
	sort.Slice(comments, func(i, j int) bool { return comments[i].CreatedAt.Before(comments[j].CreatedAt) })
	return comments, nil
}

func (r *commentRepo) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.comments {
		if c.TaskID == taskID {
			delete(r.s.comments, id)
		}
	}
	return nil
}

func (r *commentRepo) DeleteByProject(ctx context.Context, projectID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, c := range r.s.comments {
		if t, ok := r.s.tasks[c.TaskID]; ok && t.ProjectID == projectID {
			delete(r.s.comments, id)
		}
	}
	return nil
}
