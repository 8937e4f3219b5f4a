// Package bootstrap wires configuration into a running service. The server
// and the cardctl CLI share it.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/biomed/internal/config"
	"github.com/JonMunkholm/biomed/internal/core"
	"github.com/JonMunkholm/biomed/internal/database"
	"github.com/JonMunkholm/biomed/internal/events"
	"github.com/JonMunkholm/biomed/internal/files"
)

// Runtime holds the long-lived dependencies of a process.
type Runtime struct {
	Pool    *pgxpool.Pool
	Files   files.Store
	Service *core.Service

	publisher *events.Publisher
}

// Open connects to the database, applies the schema when configured, and
// builds the service with its file store and event sinks.
func Open(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	pool, err := database.NewPool(ctx, cfg.Database.URL, func(pc *pgxpool.Config) {
		pc.MaxConns = int32(cfg.Database.MaxConns)
		pc.MinConns = int32(cfg.Database.MinConns)
		pc.MaxConnLifetime = cfg.Database.MaxConnLifetime
		pc.MaxConnIdleTime = cfg.Database.MaxConnIdleTime
	})
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	slog.Info("connected to database", "name", databaseName(cfg.Database.URL))

	rt := &Runtime{Pool: pool}

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, pool); err != nil {
			rt.Close()
			return nil, err
		}
		slog.Info("schema up to date")
	}

	rt.Files, err = files.New(ctx, cfg.Storage)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("file storage: %w", err)
	}

	var sinks []core.EventSink
	if cfg.Events.NATSURL != "" {
		rt.publisher, err = events.Connect(cfg.Events.NATSURL, cfg.Events.NATSToken, cfg.Events.Subject)
		if err != nil {
			rt.Close()
			return nil, err
		}
		sinks = append(sinks, rt.publisher)
		slog.Info("publishing card events", "subject", cfg.Events.Subject+".*")
	}

	rt.Service, err = core.NewService(database.New(pool), core.Options{
		HeaderSearchRows:     cfg.Import.HeaderSearchRows,
		ImportTimeout:        cfg.Import.Timeout,
		MaxConcurrentImports: cfg.Import.MaxConcurrent,
		MaxImportWait:        cfg.Import.MaxWaitTime,
		Files:                rt.Files,
		Sinks:                sinks,
	})
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

// Close releases the event connection and the pool.
func (rt *Runtime) Close() {
	if rt.publisher != nil {
		rt.publisher.Close()
	}
	if rt.Pool != nil {
		rt.Pool.Close()
	}
}

// databaseName extracts the database name without exposing credentials.
func databaseName(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Path == "" {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
