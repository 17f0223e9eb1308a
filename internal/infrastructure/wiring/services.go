// Package wiring assembles the store clients and application services for a
// single run from the loaded configuration.
package wiring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/tasksync/internal/infrastructure/config"
	"github.com/felixgeelhaar/tasksync/internal/infrastructure/github"
	"github.com/felixgeelhaar/tasksync/internal/infrastructure/notion"
	"github.com/felixgeelhaar/tasksync/pkg/application"
)

// AppServices exposes the application layer services wired to the remote stores.
type AppServices struct {
	Tracker   *notion.Client
	Issues    *github.Client
	Reconcile *application.ReconcileService
	Sync      *application.SyncService
}

// BuildAppServices constructs the clients and services for cfg. It makes no
// network calls.
func BuildAppServices(ctx context.Context, cfg config.Config, logger *slog.Logger) (*AppServices, error) {
	if logger == nil {
		logger = slog.Default()
	}

	tracker := notion.NewClient(cfg.NotionToken, cfg.NotionDatabaseID,
		notion.WithBaseURL(cfg.NotionAPIURL),
		notion.WithLogger(logger.With("system", "notion")))

	issues, err := github.NewClient(ctx, cfg.GitHubToken, cfg.GitHubRepository,
		github.WithBaseURL(cfg.GitHubAPIURL),
		github.WithLogger(logger.With("system", "github")))
	if err != nil {
		return nil, fmt.Errorf("github client: %w", err)
	}

	reconcile := application.NewReconcileService(tracker, issues, application.ReconcileOptions{
		FailFast:   cfg.FailFast,
		Retries:    cfg.Retries,
		RetryDelay: cfg.RetryDelay,
		DryRun:     cfg.DryRun,
	}, logger)

	return &AppServices{
		Tracker:   tracker,
		Issues:    issues,
		Reconcile: reconcile,
		Sync:      application.NewSyncService(reconcile, logger),
	}, nil
}
