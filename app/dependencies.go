package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/config"
	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/middleware"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories/postgres"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/account"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/enforcement"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/history"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/oracle"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/policy"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/providers"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/providers/openai"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/sentinel"
	"github.com/amulyarudresh/CorpCard-Sentinel/services/submission"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Repos     *repositories.Repositories
	TxManager repositories.TxManager

	// Oracle
	Provider   providers.Provider
	Classifier *oracle.Classifier

	// Services
	PolicyCache *policy.SnapshotCache
	Policies    *policy.PolicyService
	Accounts    *account.AccountService
	Submissions *submission.SubmissionService
	Executor    *enforcement.Executor
	Engine      *sentinel.Engine

	// Auth
	AuthMiddleware *middleware.AuthMiddleware
	TokenIssuer    *middleware.HMACValidator // nil when admin auth is disabled
}

// NewDependencies opens the database and wires every component.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps := Wire(cfg, factory, newOpenAIProvider(cfg.Oracle), logger)

	logger.Info("all dependencies initialized successfully",
		zap.String("environment", cfg.Environment),
		zap.String("failure_mode", cfg.Sentinel.FailureMode),
		zap.String("oracle_model", cfg.Oracle.Model),
		zap.Bool("admin_auth", deps.AuthMiddleware.Enabled()))
	return deps, nil
}

// Wire builds the component graph on top of an open repository factory.
// It performs no I/O.
func Wire(cfg *config.Config, factory *postgres.RepositoryFactory, provider providers.Provider, logger *zap.Logger) *Dependencies {
	d := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
		Provider:    provider,
		Metrics:     observability.NewMetrics(),
	}

	d.initRepositories()
	d.initServices()
	d.initAuth()

	return d
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*postgres.RepositoryFactory, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository factory: %w", err)
	}

	if err := factory.GetDB().HealthCheck(ctx); err != nil {
		_ = factory.Close()
		return nil, err
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			_ = factory.Close()
			return nil, err
		}
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return factory, nil
}

func newOpenAIProvider(cfg config.OracleConfig) providers.Provider {
	pcfg := providers.DefaultProviderConfig()
	pcfg.APIKey = cfg.APIKey
	pcfg.BaseURL = cfg.BaseURL
	pcfg.MaxRetries = cfg.MaxRetries
	if cfg.Timeout > 0 {
		pcfg.Timeout = cfg.Timeout
	}
	return openai.NewOpenAIAdapter(pcfg)
}

func (d *Dependencies) initRepositories() {
	d.Repos = d.RepoFactory.NewRepositories()
	d.TxManager = d.RepoFactory.GetTxManager()
}

func (d *Dependencies) initServices() {
	cfg := d.Config

	d.PolicyCache = policy.NewSnapshotCache(cfg.Sentinel.PolicyCacheTTL)
	d.Policies = policy.NewPolicyService(d.Repos.Policies, d.PolicyCache, d.Logger.Named("policy"))
	d.Accounts = account.NewAccountService(d.TxManager, d.Repos.Accounts, d.Repos.AuditLogs, d.Logger.Named("account"))

	invoker := oracle.NewProviderInvoker(d.Provider, cfg.Oracle, d.Logger.Named("oracle"))
	d.Classifier = oracle.NewClassifier(invoker, d.Logger.Named("oracle"))
	summarizer := history.NewSummarizer(d.Repos.Transactions, d.Logger.Named("history"))
	d.Executor = enforcement.NewExecutor(d.TxManager, d.Repos, d.Logger.Named("enforcement"))

	d.Engine = sentinel.NewEngine(d.Policies, d.Classifier, summarizer, d.Executor, d.Metrics, cfg.Sentinel, d.Logger.Named("engine"))
	d.Submissions = submission.NewSubmissionService(d.Repos.Accounts, d.Repos.Transactions, d.Engine, d.Metrics, d.Logger.Named("submission"))
}

func (d *Dependencies) initAuth() {
	if d.Config.Auth.JWTSecret == "" {
		d.Logger.Warn("ADMIN_JWT_SECRET not set, administrative routes are open")
		d.AuthMiddleware = middleware.NewAuthMiddleware(nil, d.Logger)
		return
	}

	d.TokenIssuer = middleware.NewHMACValidator(d.Config.Auth.JWTSecret, d.Config.Auth.Issuer)
	d.AuthMiddleware = middleware.NewAuthMiddleware(d.TokenIssuer, d.Logger)
}

// IssueAdminToken signs an admin token. It fails when admin auth is disabled.
func (d *Dependencies) IssueAdminToken(subject string, ttl time.Duration) (string, error) {
	if d.TokenIssuer == nil {
		return "", errors.New("admin auth is disabled")
	}
	return d.TokenIssuer.IssueToken(subject, middleware.RoleAdmin, ttl)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	_ = d.Logger.Sync()

	return errors.Join(errs...)
}
