package app

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/task-tracker/config"
	"github.com/upb/task-tracker/internal/observability"
	"github.com/upb/task-tracker/internal/policy"
	"github.com/upb/task-tracker/middleware"
	"github.com/upb/task-tracker/repositories"
	"github.com/upb/task-tracker/repositories/postgres"
	"github.com/upb/task-tracker/services"
	"github.com/upb/task-tracker/services/comment"
	"github.com/upb/task-tracker/services/identity"
	"github.com/upb/task-tracker/services/project"
	"github.com/upb/task-tracker/services/stats"
	"github.com/upb/task-tracker/services/task"
	"github.com/upb/task-tracker/services/team"
	"github.com/upb/task-tracker/session"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TransactionManager

	// Observability; Metrics is nil when disabled
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Identity
	Resolver *identity.Resolver
	Issuer   *session.Issuer
	Loader   *identity.Loader

	// Authorization
	Authorizer       services.Authorizer
	AuthMiddleware   *middleware.AuthMiddleware
	PolicyMiddleware *middleware.PolicyMiddleware

	// Use cases
	Teams    *team.Service
	Projects *project.Service
	Tasks    *task.Service
	Comments *comment.Service
	Stats    *stats.Service
}

// NewDependencies connects to PostgreSQL and wires every component on top
// of it.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	db := factory.GetDB()
	if err := db.PingContext(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	deps := NewWithRepositories(cfg, logger, factory.NewRepositories(), factory.GetTransactionManager())
	deps.RepoFactory = factory
	deps.DB = db

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// NewWithRepositories wires the application over an existing storage
// backend. Tests use it with the in-memory store.
func NewWithRepositories(cfg *config.Config, logger *zap.Logger, repos *repositories.Repositories, txMgr repositories.TransactionManager) *Dependencies {
	d := &Dependencies{
		Config:    cfg,
		Logger:    logger,
		Repos:     repos,
		TxManager: txMgr,
	}

	d.initMetrics()
	d.initIdentity()
	d.initServices()

	return d
}

func (d *Dependencies) initMetrics() {
	if !d.Config.Observability.MetricsEnabled {
		return
	}
	d.Registry, d.Metrics = observability.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (d *Dependencies) initIdentity() {
	auth := d.Config.Auth

	codec := session.NewCodec(auth.JWTSecret)
	d.Issuer = session.NewIssuer(codec, auth.TokenTTL)
	d.Resolver = identity.NewResolver(
		d.Repos.Users,
		identity.NewPasswordHasher(auth.BcryptCost),
		identity.RoleRules{AdminEmail: auth.AdminEmail, ManagerCode: auth.ManagerCode},
		d.Logger,
	)
	d.Loader = identity.NewLoader(codec, d.Repos.Users, d.Logger)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Loader, d.Logger)
}

func (d *Dependencies) initServices() {
	var authz services.Authorizer = policy.NewEvaluator()
	if d.Metrics != nil {
		authz = services.RecordDenials(authz, d.Metrics)
	}
	d.Authorizer = authz
	d.PolicyMiddleware = middleware.NewPolicyMiddleware(authz, d.Logger)

	d.Teams = team.NewService(d.Repos.Teams, authz, d.Logger)
	d.Projects = project.NewService(d.Repos, d.TxManager, authz, d.Logger)
	d.Tasks = task.NewService(d.Repos, d.TxManager, authz, d.Logger)
	d.Comments = comment.NewService(d.Repos.Tasks, d.Repos.Comments, authz, d.Logger)
	d.Stats = stats.NewService(d.Repos, authz, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("closing dependencies")

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	d.Logger.Info("all dependencies closed")
	return nil
}
