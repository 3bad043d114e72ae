package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"library-engine/internal/config"
	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/library"
	"library-engine/internal/domain/staff"
	"library-engine/internal/event"
	"library-engine/internal/infrastructure/database/postgres"
	"library-engine/internal/infrastructure/logging"
	"library-engine/internal/infrastructure/storage/flatfile"
	"library-engine/internal/notify"

	amqp "github.com/rabbitmq/amqp091-go"
)

const rabbitMQDialAttempts = 5

func initializeApp(path string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewLogger(cfg.Logger)
	logger.Info("Application starting...", "config_path", path, "data_dir", cfg.Storage.DataDir)
	return cfg, logger, nil
}

// storageBackend holds the repositories of the configured driver.
type storageBackend struct {
	library library.Repositories
	staff   []staff.Repository
	close   func()
}

func (b *storageBackend) Close() {
	if b.close != nil {
		b.close()
	}
}

// openStorage builds the repositories for cfg.Storage.Driver. The postgres
// driver connects, creates the schema and keeps the pool open until Close.
func openStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*storageBackend, error) {
	st := cfg.Storage
	switch st.Driver {
	case "", config.DriverFile:
		return &storageBackend{
			library: library.Repositories{
				Books:     flatfile.NewItemRepository(catalog.KindBook, st.DataDir, st.BooksFile, logger),
				CDs:       flatfile.NewItemRepository(catalog.KindCD, st.DataDir, st.CDsFile, logger),
				Users:     flatfile.NewUserRepository(st.DataDir, st.UsersFile, logger),
				BookLoans: flatfile.NewLoanRepository(catalog.KindBook, st.DataDir, st.LoansFile, logger),
				CDLoans:   flatfile.NewLoanRepository(catalog.KindCD, st.DataDir, st.CDLoansFile, logger),
			},
			staff: []staff.Repository{
				flatfile.NewAccountRepository(staff.RoleLibrarian, st.DataDir, st.LibrariansFile, logger),
				flatfile.NewAccountRepository(staff.RoleAdmin, st.DataDir, st.AdminsFile, logger),
			},
		}, nil

	case config.DriverPostgres:
		pool, err := postgres.NewConnectionPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, err
		}
		return &storageBackend{
			library: library.Repositories{
				Books:     postgres.NewItemRepository(catalog.KindBook, pool, logger),
				CDs:       postgres.NewItemRepository(catalog.KindCD, pool, logger),
				Users:     postgres.NewUserRepository(pool, logger),
				BookLoans: postgres.NewLoanRepository(catalog.KindBook, pool, logger),
				CDLoans:   postgres.NewLoanRepository(catalog.KindCD, pool, logger),
			},
			staff: []staff.Repository{
				postgres.NewAccountRepository(staff.RoleLibrarian, pool, logger),
				postgres.NewAccountRepository(staff.RoleAdmin, pool, logger),
			},
			close: func() {
				logger.Info("Closing database connection pool...")
				pool.Close()
			},
		}, nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", st.Driver)
}

// initializeLibrary loads every collection into the library service.
func initializeLibrary(ctx context.Context, store *storageBackend, logger *slog.Logger) (library.Service, error) {
	svc := library.NewService(store.library, logger)
	report, err := svc.Load(ctx)
	if err != nil {
		return nil, err
	}
	if skipped := report.TotalSkipped(); skipped > 0 {
		logger.Warn("Library loaded with skipped records", "skipped", skipped)
	}
	return svc, nil
}

func initializeStaff(ctx context.Context, store *storageBackend, logger *slog.Logger) (*staff.Directory, error) {
	directory := staff.NewDirectory(logger)
	if err := directory.Load(ctx, store.staff...); err != nil {
		return nil, err
	}
	return directory, nil
}

// initializeNotifier always registers the log channel. The RabbitMQ publisher
// is added when enabled, and its connection is returned for shutdown.
func initializeNotifier(cfg *config.Config, logger *slog.Logger) (*notify.Dispatcher, *amqp.Connection, error) {
	dispatcher := notify.NewDispatcher(logger)
	if err := dispatcher.Register(notify.NewLogChannel(logger)); err != nil {
		return nil, nil, err
	}

	if !cfg.RabbitMQ.Enabled {
		logger.Info("RabbitMQ reminders disabled")
		return dispatcher, nil, nil
	}

	uri, err := rabbitMQURI(cfg.RabbitMQ)
	if err != nil {
		return nil, nil, err
	}
	conn, err := connectRabbitMQ(uri, logger)
	if err != nil {
		return nil, nil, err
	}

	publisher, err := event.NewRabbitMQReminderPublisher(event.FromConnection(conn), cfg.RabbitMQ.ExchangeName, logger)
	if err != nil {
		closeRabbitMQConnection(conn, logger)
		return nil, nil, err
	}
	if err := dispatcher.Register(publisher); err != nil {
		closeRabbitMQConnection(conn, logger)
		return nil, nil, err
	}
	return dispatcher, conn, nil
}

func rabbitMQURI(cfg config.RabbitMQConfig) (string, error) {
	if cfg.Host == "" {
		return "", fmt.Errorf("RabbitMQ host is not configured")
	}
	port := cfg.Port
	if port == 0 {
		port = 5672
	}

	switch {
	case cfg.Username != "" && cfg.Password != "":
		return fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.Username, cfg.Password, cfg.Host, port), nil
	case cfg.Username != "" || cfg.Password != "":
		return "", fmt.Errorf("RabbitMQ username and password must be provided together")
	default:
		return fmt.Sprintf("amqp://%s:%d/", cfg.Host, port), nil
	}
}

func connectRabbitMQ(uri string, logger *slog.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for i := 1; i <= rabbitMQDialAttempts; i++ {
		conn, err = amqp.Dial(uri)
		if err == nil {
			logger.Info("Successfully connected to RabbitMQ")

			go func() {
				closeChan := conn.NotifyClose(make(chan *amqp.Error, 1))
				if e := <-closeChan; e != nil {
					logger.Error("RabbitMQ Connection Closed", slog.Any("error", e))
				}
			}()

			return conn, nil
		}
		logger.Warn("Failed to connect to RabbitMQ, retrying...",
			slog.Int("attempt", i),
			slog.Int("max_attempts", rabbitMQDialAttempts),
			slog.Any("error", err),
		)
		time.Sleep(time.Duration(i*2) * time.Second)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", rabbitMQDialAttempts, err)
}

func closeRabbitMQConnection(conn *amqp.Connection, logger *slog.Logger) {
	if conn == nil {
		return
	}
	if conn.IsClosed() {
		logger.Info("RabbitMQ connection already closed, skipping close.")
		return
	}
	logger.Info("Closing RabbitMQ connection...")
	if err := conn.Close(); err != nil {
		logger.Error("Failed to close RabbitMQ connection gracefully", slog.Any("error", err))
	}
}
