package main

import (
	"context"
	"fmt"
	"os"

	"chat-ai/repositories"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

// history dumps the stored conversations as a table, without touching the
// completion service or the search index.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config. Only the store path and log level matter here, so the
	// OpenAI variables are not required.
	_ = godotenv.Load()
	var config struct {
		BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
		LogLevel       string `env:"LOG_LEVEL,default=INFO"`
	}
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Open Badger in read-only mode.
	// BypassLockGuard allows opening while a chat session holds the lock.
	opts := badger.DefaultOptions(config.BadgerFilepath).
		WithReadOnly(true).
		WithBypassLockGuard(true).
		WithLoggingLevel(badger.WARNING)
	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() { _ = db.Close() }()

	repository := repositories.NewConversationRepository(db, nil, log, nil)
	listing, err := repository.LoadAll(context.Background())
	if err != nil {
		return err
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "Created", "Messages", "Title"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, entry := range listing {
		table.Append([]string{
			entry.ID.String(),
			entry.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", len(entry.Messages)),
			entry.Title(),
		})
	}
	table.Render()
	return nil
}
