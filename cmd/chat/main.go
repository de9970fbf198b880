package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"chat-ai/ai"
	"chat-ai/domain"
	"chat-ai/errors"
	"chat-ai/internal"
	"chat-ai/render"
	"chat-ai/repositories"
	"chat-ai/session"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

// Exit codes to provide meaningful status to the operating system.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const searchLimit = 10

func main() {
	// The main function manages the OS exit code based on run()'s return.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Chat terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, owns the REPL lifecycle, and centralizes
// error reporting so every defer (database cleanup included) executes before
// the process exits.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return exitConfig, err
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB + Bluge)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	blugeWriter, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open bluge writer: %w", err)
	}
	defer func() {
		log.Info("Closing Bluge...")
		_ = blugeWriter.Close()
	}()

	// 3. Repositories, renderer, completion client, session
	searchRepository := repositories.NewSearchRepository(blugeWriter, log)
	conversationRepository := repositories.NewConversationRepository(db, searchRepository, log, config.HistoryLimit)

	markdown, err := render.NewMarkdown(config.WordWrap)
	if err != nil {
		return exitRuntime, fmt.Errorf("renderer setup failed: %w", err)
	}
	client := ai.NewOpenAIClient(config.OpenAIAPIKey, config.OpenAIModel, config.OpenAIBaseURL)
	chatSession := session.New(conversationRepository, client, markdown, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Populate the listing before accepting input, so a send racing the
	// startup scan cannot lose its freshly created entry.
	if listing, err := conversationRepository.LoadAll(ctx); err != nil {
		log.Warn("Starting with an empty listing", "error", err)
	} else {
		log.Info("Conversations loaded", "count", len(listing))
	}

	repl(ctx, chatSession, conversationRepository, searchRepository, log)
	color.Gray.Println("Bye.")
	return exitOK, nil
}

// repl reads lines until EOF or signal. Lines starting with '/' are
// commands; anything else is sent to the model.
func repl(ctx context.Context, chatSession *session.Session, conversations *repositories.ConversationRepository, search *repositories.SearchRepository, log *slog.Logger) {
	inputCh := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

	color.Cyan.Println("Chat AI (/new /list /resume <n> /search <terms> /quit)")
	for {
		color.Cyan.Print("You> ")
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			fmt.Println()
			return
		case line, ok = <-inputCh:
			if !ok {
				return
			}
		}

		switch {
		case strings.HasPrefix(line, "/quit"):
			return
		case strings.HasPrefix(line, "/new"):
			chatSession.StartNew()
			color.Gray.Println("Started a new conversation.")
		case strings.HasPrefix(line, "/list"):
			printListing(conversations.Listing())
		case strings.HasPrefix(line, "/resume"):
			resume(chatSession, conversations.Listing(), strings.TrimSpace(strings.TrimPrefix(line, "/resume")))
		case strings.HasPrefix(line, "/search"):
			runSearch(ctx, search, strings.TrimSpace(strings.TrimPrefix(line, "/search")))
		default:
			send(ctx, chatSession, line, log)
		}
	}
}

func send(ctx context.Context, chatSession *session.Session, line string, log *slog.Logger) {
	added, err := chatSession.Send(ctx, line)
	switch {
	case stderrors.Is(err, errors.ErrEmptyMessage):
		color.Yellow.Println("Nothing to send.")
		return
	case stderrors.Is(err, errors.ErrRequestInFlight):
		color.Yellow.Println("Still waiting for the previous reply.")
		return
	case err != nil:
		// The optimistically appended user message stays in the history.
		log.Error("Send failed", "error", err)
		color.Red.Printf("Send failed: %v\n", err)
	}
	for _, m := range added {
		if m.Role == domain.RoleAssistant {
			color.Magenta.Print("Assistant:")
			fmt.Println()
			fmt.Print(m.Rendered)
		}
	}
}

func printListing(entries []domain.Summary) {
	if len(entries) == 0 {
		color.Gray.Println("No conversations yet.")
		return
	}
	for n, entry := range entries {
		color.Green.Printf("%3d. ", n+1)
		fmt.Printf("%s  %s\n", entry.CreatedAt.Local().Format("2006-01-02 15:04"), entry.Title())
	}
}

func resume(chatSession *session.Session, entries []domain.Summary, arg string) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(entries) {
		color.Yellow.Printf("Usage: /resume <1..%d>\n", len(entries))
		return
	}
	entry := entries[n-1]
	chatSession.Resume(domain.Conversation{ID: entry.ID, CreatedAt: entry.CreatedAt, Messages: entry.Messages})
	for _, m := range entry.Messages {
		if m.Role == domain.RoleUser {
			color.Cyan.Printf("You> %s\n", m.Rendered)
		} else {
			fmt.Print(m.Rendered)
		}
	}
}

func runSearch(ctx context.Context, search *repositories.SearchRepository, terms string) {
	if terms == "" {
		color.Yellow.Println("Usage: /search <terms>")
		return
	}
	hits, err := search.Search(ctx, terms, searchLimit)
	if err != nil {
		color.Red.Printf("Search failed: %v\n", err)
		return
	}
	if len(hits) == 0 {
		color.Gray.Println("No matches.")
		return
	}
	for _, hit := range hits {
		color.Green.Printf("[%s] ", hit.ConversationID.String()[:8])
		fmt.Printf("%s: %s\n", hit.Role, hit.Content)
	}
}
