package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexanderramin/orgctl/internal/cli"
	"github.com/alexanderramin/orgctl/internal/config"
	"github.com/alexanderramin/orgctl/internal/db"
	"github.com/alexanderramin/orgctl/internal/impact"
	"github.com/alexanderramin/orgctl/internal/logging"
	"github.com/alexanderramin/orgctl/internal/orgclient"
	"github.com/alexanderramin/orgctl/internal/repository"
	"github.com/alexanderramin/orgctl/internal/service"
	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(err))
		os.Exit(1)
	}
}

func run() error {
	cfg := config.LoadConfig()

	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	for _, w := range cfg.Warnings {
		logger.Warn("config_value_rejected", zap.String("detail", w))
	}

	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	journalRepo := repository.NewSQLiteJournalRepo(database)
	snapshotRepo := repository.NewSQLiteSnapshotRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	client := orgclient.New(orgclient.Config{
		BaseURL: cfg.BaseURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
	}, orgclient.NewLogObserver(logger))

	observer := service.NewLogUseCaseObserver(logger)
	journal := service.NewJournal(journalRepo, cfg.Operator, logger)
	roster := service.NewRosterService(client,
		service.WithRosterJournal(journal),
		service.WithRosterObserver(observer),
	)
	orgs := service.NewOrgService(client, tree.NewStore(),
		service.WithJournal(journal),
		service.WithSnapshots(uow, snapshotRepo, cfg.BaseURL),
		service.WithImpactOptions(impact.WithMemberCounter(roster)),
		service.WithOrgLogger(logger),
		service.WithOrgObserver(observer),
	)

	app := &cli.App{
		Orgs:    orgs,
		Roster:  roster,
		Journal: journal,
		Logger:  logger,
		Interactive: func() bool {
			in, out := os.Stdin.Fd(), os.Stdout.Fd()
			return (isatty.IsTerminal(in) || isatty.IsCygwinTerminal(in)) &&
				(isatty.IsTerminal(out) || isatty.IsCygwinTerminal(out))
		},
	}
	if home, err := os.UserHomeDir(); err == nil {
		app.HistoryPath = filepath.Join(home, ".orgctl", "history")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("orgctl_start", zap.String("base_url", cfg.BaseURL), zap.String("db", cfg.DBPath))
	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
