// Command seed loads the stock corporate policies and card holders.
// It is idempotent: existing rows, matched by rule name or account name,
// are left untouched.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/amulyarudresh/CorpCard-Sentinel/config"
	"github.com/amulyarudresh/CorpCard-Sentinel/internal/observability"
	"github.com/amulyarudresh/CorpCard-Sentinel/middleware"
	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories"
	"github.com/amulyarudresh/CorpCard-Sentinel/repositories/postgres"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type policySeed struct {
	RuleName    string
	Description string
}

type holderSeed struct {
	Name  string
	Email string
}

var stockPolicies = []policySeed{
	{"No Gambling", "Transactions at casinos, betting sites, or lottery merchants are strictly prohibited and will result in immediate card freeze."},
	{"Travel Meal Limit", "Single meal expenses during travel cannot exceed $75. Alcohol is limited to one drink per meal."},
	{"Tech Procurement", "Computer hardware (Laptops, Monitors) over $500 requires prior IT approval. Peripherals under $100 are allowed."},
	{"Software Subscriptions", "SaaS subscriptions (e.g., GitHub, AWS) require valid business justification. Personal subscriptions (Netflix, Spotify) are prohibited."},
	{"Weekend Expense Ban", "Expenses incurred on Saturday or Sunday are flagged for review unless the category is 'Travel' or 'Client Entertainment'."},
	{"Rideshare Policy", "Uber/Lyft is allowed for business travel. Premium services (Uber Black, Lyft Lux) are prohibited unless transporting clients."},
	{"Entertainment Limit", "Client entertainment is capped at $150 per attendee. Nightclubs and adult entertainment venues are prohibited."},
	{"Suspicious Merchants", "Purchases of gift cards, cryptocurrency, or wire transfers through the corporate card are prohibited."},
}

var stockHolders = []holderSeed{
	{"Sarah CTO", "sarah.cto@techcorp.com"},
	{"Mike Sales VP", "mike.sales@techcorp.com"},
	{"Jessica HR", "jessica.hr@techcorp.com"},
	{"David Dev", "david.dev@techcorp.com"},
	{"Emily Intern", "emily.intern@techcorp.com"},
	{"Alex Marketing", "alex.mkt@techcorp.com"},
}

// report counts what a seed run inserted and skipped
type report struct {
	PoliciesAdded int
	PoliciesExist int
	HoldersAdded  int
	HoldersExist  int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		initSchema bool
		printToken bool
		tokenTTL   time.Duration
	)

	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Load the stock corporate policies and card holders",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), initSchema, printToken, tokenTTL)
		},
	}

	cmd.Flags().BoolVar(&initSchema, "init-schema", false, "Create tables before seeding")
	cmd.Flags().BoolVar(&printToken, "print-admin-token", false, "Print a signed admin token after seeding")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "Lifetime of the printed admin token")
	return cmd
}

func run(ctx context.Context, initSchema, printToken bool, tokenTTL time.Duration) error {
	cfg, err := config.New(ctx)
	if err != nil {
		return err
	}

	logger, err := observability.NewLogger(cfg.Observability)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = factory.Close() }()

	if initSchema || cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			return err
		}
	}

	rep, err := seed(ctx, factory.NewRepositories(), logger)
	if err != nil {
		return err
	}
	logger.Info("database seeded",
		zap.Int("policies_added", rep.PoliciesAdded),
		zap.Int("policies_existing", rep.PoliciesExist),
		zap.Int("holders_added", rep.HoldersAdded),
		zap.Int("holders_existing", rep.HoldersExist))

	if printToken {
		if cfg.Auth.JWTSecret == "" {
			return errors.New("ADMIN_JWT_SECRET is not set")
		}
		token, err := middleware.NewHMACValidator(cfg.Auth.JWTSecret, cfg.Auth.Issuer).
			IssueToken("seed-admin", middleware.RoleAdmin, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, token)
	}
	return nil
}

func seed(ctx context.Context, repos *repositories.Repositories, logger *zap.Logger) (report, error) {
	var rep report

	for _, p := range stockPolicies {
		_, err := repos.Policies.GetByRuleName(ctx, p.RuleName)
		switch {
		case err == nil:
			rep.PoliciesExist++
			logger.Debug("policy already exists", zap.String("rule_name", p.RuleName))
			continue
		case !errors.Is(err, repositories.ErrNotFound):
			return rep, fmt.Errorf("lookup policy %q: %w", p.RuleName, err)
		}

		if err := repos.Policies.Create(ctx, models.NewPolicy(p.RuleName, p.Description)); err != nil {
			return rep, fmt.Errorf("create policy %q: %w", p.RuleName, err)
		}
		rep.PoliciesAdded++
		logger.Info("policy added", zap.String("rule_name", p.RuleName))
	}

	for _, h := range stockHolders {
		_, err := repos.Accounts.GetByName(ctx, h.Name)
		switch {
		case err == nil:
			rep.HoldersExist++
			logger.Debug("card holder already exists", zap.String("name", h.Name))
			continue
		case !errors.Is(err, repositories.ErrNotFound):
			return rep, fmt.Errorf("lookup card holder %q: %w", h.Name, err)
		}

		if err := repos.Accounts.Create(ctx, models.NewAccount(h.Name, h.Email)); err != nil {
			return rep, fmt.Errorf("create card holder %q: %w", h.Name, err)
		}
		rep.HoldersAdded++
		logger.Info("card holder added", zap.String("name", h.Name))
	}

	return rep, nil
}
