package backend

import (
	"context"
	"fmt"

	"gastos/internal/amqp"
	"gastos/internal/config"
	"gastos/internal/log"
	"gastos/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentStore),
	}
}

// FromAppConfig converts the application config to backend config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := Type(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}

	return Config{
		Type:         backendType,
		DataDir:      appConfig.DataDir,
		UserID:       appConfig.UserID,
		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,
	}, nil
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*Result, error) {
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", cfg.Type)
	}

	switch cfg.Type {
	case RemoteBackend:
		return f.createRemoteBackend(cfg)
	default:
		return f.createLocalBackend(cfg)
	}
}

func (f *DefaultFactory) createLocalBackend(cfg Config) (*Result, error) {
	st, err := store.NewLocalStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}

	f.logger.Info("Initialized local backend", log.FieldBackend, cfg.Type.String(), "dir", cfg.DataDir)

	return &Result{
		Store:   st,
		Cleanup: st.Close,
	}, nil
}

// createRemoteBackend wires the registered-session stack: the same
// local store for optimistic writes plus the AMQP publisher feeding the
// sync worker.
func (f *DefaultFactory) createRemoteBackend(cfg Config) (*Result, error) {
	local, err := store.NewLocalStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize local store: %w", err)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		_ = local.Close()
		return nil, fmt.Errorf("failed to initialize AMQP client: %w", err)
	}

	synced := store.NewSyncedStore(local, amqpClient, cfg.UserID)

	f.logger.Info("Initialized remote backend",
		log.FieldBackend, cfg.Type.String(),
		log.FieldUserID, cfg.UserID,
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	cleanup := func() error {
		err := synced.Close()
		if cerr := amqpClient.Close(); err == nil {
			err = cerr
		}
		return err
	}

	return &Result{
		Store:   synced,
		Cleanup: cleanup,
	}, nil
}
