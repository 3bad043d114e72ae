package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"library-engine/internal/batch"
	"library-engine/internal/config"
	"library-engine/internal/domain/catalog"
	"library-engine/internal/domain/loan"
	"library-engine/internal/domain/member"
	"library-engine/internal/notify"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFixture lays out a data directory and a config.yml pointing at it.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	files := map[string]string{
		"books.txt":      "Dune,Frank Herbert,222,false,2024-01-01,2024-01-29\nClean Code,Robert Martin,111,true,null,null\n",
		"cds.txt":        "Kind of Blue,Miles Davis,CD-1,true,null,null\n",
		"users.txt":      "Alice,null,0\nBob,bob@example.com,15\n",
		"loans.txt":      "Alice,222,2024-01-01,2024-01-29\n",
		"cd_loans.txt":   "",
		"librarians.txt": "L1,Lib,books\n",
		"admins.txt":     "A1,Root,s3cret\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644))
	}

	cfg := "storage:\n  dataDir: " + dataDir + "\nlogger:\n  level: error\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(cfg), 0o644))
	return dir
}

func TestInitializeLibrary(t *testing.T) {
	dir := writeFixture(t)
	cfg, err := config.LoadConfig(dir)
	require.NoError(t, err)
	ctx := context.Background()

	store, err := openStorage(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer store.Close()

	svc, err := initializeLibrary(ctx, store, discardLogger())
	require.NoError(t, err)
	assert.Len(t, svc.Books(ctx), 2)
	assert.Len(t, svc.Users(ctx), 2)
	assert.Len(t, svc.AllOverdueLoans(ctx), 1)

	directory, err := initializeStaff(ctx, store, discardLogger())
	require.NoError(t, err)
	_, err = directory.Authenticate(ctx, "A1", "s3cret")
	assert.NoError(t, err)
}

func TestOpenStorage_Drivers(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown driver", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite"}}
		store, err := openStorage(ctx, cfg, discardLogger())
		assert.Nil(t, store)
		assert.ErrorContains(t, err, `unknown storage driver "sqlite"`)
	})

	t.Run("postgres without url", func(t *testing.T) {
		cfg := &config.Config{Storage: config.StorageConfig{Driver: config.DriverPostgres}}
		store, err := openStorage(ctx, cfg, discardLogger())
		assert.Nil(t, store)
		assert.ErrorContains(t, err, "database URL is empty")
	})
}

func TestInitializeNotifier_LogOnly(t *testing.T) {
	dispatcher, conn, err := initializeNotifier(&config.Config{}, discardLogger())

	require.NoError(t, err)
	assert.Nil(t, conn)
	assert.Equal(t, []string{"log"}, dispatcher.Channels())
}

func TestRabbitMQURI(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.RabbitMQConfig
		want    string
		wantErr bool
	}{
		{"credentials", config.RabbitMQConfig{Host: "mq", Port: 5672, Username: "guest", Password: "guest"}, "amqp://guest:guest@mq:5672/", false},
		{"anonymous with default port", config.RabbitMQConfig{Host: "mq"}, "amqp://mq:5672/", false},
		{"missing host", config.RabbitMQConfig{Port: 5672}, "", true},
		{"user without password", config.RabbitMQConfig{Host: "mq", Username: "guest"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := rabbitMQURI(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrintOverdue(t *testing.T) {
	l, err := loan.Open(member.NewUser("Alice", ""), catalog.NewCD("Kind of Blue", "Miles Davis", "CD-1"),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printOverdue(&out, []*loan.Loan{l}, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)))

	assert.Contains(t, out.String(), "KIND")
	assert.Contains(t, out.String(), "Kind of Blue")
	assert.Contains(t, out.String(), "2024-03-08")
	assert.Contains(t, out.String(), "60.00")

	out.Reset()
	require.NoError(t, printOverdue(&out, nil, time.Now()))
	assert.Equal(t, "No overdue loans.\n", out.String())
}

func TestOverdueCommand(t *testing.T) {
	dir := writeFixture(t)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"--config", dir, "overdue", "--kind", "book"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		overdueKind = ""
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "Dune")
	assert.Contains(t, out.String(), "Alice")
}

func TestConsumeCommand_RequiresRabbitMQ(t *testing.T) {
	dir := writeFixture(t)

	rootCmd.SetArgs([]string{"--config", dir, "consume-reminders"})
	rootCmd.SetErr(io.Discard)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetErr(nil)
	})

	assert.ErrorContains(t, rootCmd.Execute(), "rabbitmq must be enabled")
}

func TestWaitForShutdownSignal(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stopped := false
	waitForShutdownSignal(ctx, func() { stopped = true })
	assert.True(t, stopped)
}

func TestStartBatchJobs(t *testing.T) {
	dispatcher := notify.NewDispatcher(discardLogger())
	job := batch.NewReminderJob(emptySource{}, dispatcher, time.Second, discardLogger())

	t.Run("schedules the reminder job", func(t *testing.T) {
		cfg := &config.Config{Batch: config.BatchConfig{ReminderSchedule: "*/5 * * * *"}}
		c := startBatchJobs(cfg, discardLogger(), job)
		defer c.Stop()
		assert.Len(t, c.Entries(), 1)
	})

	t.Run("skips an invalid schedule", func(t *testing.T) {
		cfg := &config.Config{Batch: config.BatchConfig{ReminderSchedule: "not a schedule"}}
		c := startBatchJobs(cfg, discardLogger(), job)
		defer c.Stop()
		assert.Empty(t, c.Entries())
	})
}

type emptySource struct{}

func (emptySource) AllOverdueLoans(context.Context) []*loan.Loan { return nil }

func TestHandleShutdown(t *testing.T) {
	cronScheduler := cron.New()
	srv := &http.Server{}
	shutdownChan := make(chan os.Signal, 1)
	serverErrors := make(chan error, 1)
	shutdownChan <- syscall.SIGINT

	done := make(chan struct{})
	go func() {
		handleShutdown(srv, cronScheduler, shutdownChan, serverErrors, discardLogger())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not complete")
	}
}
