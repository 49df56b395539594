package leads

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"leadbot-backend/internal/config"
	"leadbot-backend/internal/db"
)

// Open builds the sink named by cfg.Sink. When the backend cannot be reached
// it logs the failure and returns an Unavailable sink, so the server still
// starts and chat keeps working. The returned close func is never nil.
func Open(ctx context.Context, cfg config.LeadsConfig, logger *zap.Logger) (Sink, func() error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sink, closeFn, err := open(ctx, cfg, logger)
	if err != nil {
		logger.Error("lead sink unavailable", zap.String("sink", cfg.Sink), zap.Error(err))
		return Unavailable{Reason: err}, func() error { return nil }
	}
	logger.Info("lead sink ready", zap.String("sink", sink.Name()))
	return sink, closeFn
}

func open(ctx context.Context, cfg config.LeadsConfig, logger *zap.Logger) (Sink, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Sink {
	case "memory":
		return NewMemorySink(), noop, nil

	case "firestore":
		s, err := NewFirestoreSink(ctx, FirestoreConfig{
			ProjectID:       cfg.Firestore.ProjectID,
			CredentialsPath: cfg.Firestore.CredentialsPath,
			Collection:      cfg.Collection,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "postgres":
		d, err := db.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := d.RunMigrations(ctx, db.Migrations()); err != nil {
			d.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return NewPostgresSink(d), d.Close, nil

	case "sqlite":
		s, err := NewSQLiteSink(cfg.SQLiteDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case "elasticsearch":
		s, err := NewElasticsearchSink(ElasticsearchConfig{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
			Index:     cfg.Elastic.Index,
		})
		if err != nil {
			return nil, nil, err
		}
		return s, noop, nil
	}
	return nil, nil, fmt.Errorf("unknown lead sink %q", cfg.Sink)
}
