// Command deckflow runs the swipe-deck engine from a terminal: browse
// a candidate deck against a live supply service, or inspect and
// export the persisted deck mirrors.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ramonehamilton/deckflow/internal/config"
	"github.com/ramonehamilton/deckflow/internal/deck"
	"github.com/ramonehamilton/deckflow/internal/engine"
	"github.com/ramonehamilton/deckflow/internal/events"
	"github.com/ramonehamilton/deckflow/internal/persist"
	"github.com/ramonehamilton/deckflow/internal/remote"
	"github.com/ramonehamilton/deckflow/internal/swipe"
)

var (
	configPath = flag.String("config", "", "Path to config.toml (default: ~/.deckflow/config.toml)")
	dbPath     = flag.String("db-path", "", "Path to the durable deck mirror (default: ~/.deckflow/decks.db)")
	baseURL    = flag.String("base-url", "", "Supply/decision service base URL (overrides config)")
	userID     = flag.String("user-id", "", "Acting user id (overrides config)")

	inspect    = flag.Bool("inspect", false, "List persisted deck mirrors and exit")
	exportPath = flag.String("export", "", "Export deck snapshots to the given file and exit")
	importPath = flag.String("import", "", "Import deck snapshots from the given file and exit")
	password   = flag.String("password", "", "Snapshot encryption password (optional)")
)

func main() {
	flag.Parse()

	cfgPath, cfg, err := loadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *baseURL != "" {
		cfg.Remote.BaseURL = *baseURL
	}
	if *userID != "" {
		cfg.App.UserID = *userID
	}

	storagePath := cfg.Storage.Path
	if *dbPath != "" {
		storagePath = *dbPath
	}
	if storagePath == "" {
		storagePath, err = config.DefaultStoragePath()
		if err != nil {
			log.Fatalf("Failed to resolve storage path: %v", err)
		}
	}

	durable, err := persist.OpenDurable(persist.DefaultDurableConfig(storagePath))
	if err != nil {
		log.Fatalf("Failed to open durable store: %v", err)
	}
	defer func() { _ = durable.Close() }()

	switch {
	case *inspect:
		if err := runInspect(durable); err != nil {
			log.Fatalf("Inspect failed: %v", err)
		}
	case *exportPath != "":
		if err := persist.ExportSnapshot(durable, *exportPath, *password); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		fmt.Printf("Exported deck snapshots to %s\n", *exportPath)
	case *importPath != "":
		n, err := persist.ImportSnapshot(durable, *importPath, *password)
		if err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		fmt.Printf("Imported %d deck snapshots from %s\n", n, *importPath)
	default:
		if err := runBrowse(cfgPath, cfg, durable); err != nil {
			log.Fatalf("Browse failed: %v", err)
		}
	}
}

func loadConfig() (string, *config.Config, error) {
	path := *configPath
	if path == "" {
		var err error
		path, err = config.DefaultPath()
		if err != nil {
			return "", nil, err
		}
	}
	cfg, err := config.Load(path)
	return path, cfg, err
}

func runInspect(store persist.Store) error {
	records, err := store.List()
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("No persisted decks.")
		return nil
	}
	for key, record := range records {
		fmt.Printf("%s: %d items, cursor %d, %d decided, ready=%v, updated %s\n",
			key, len(record.Items), record.Cursor, len(record.DecidedIDs),
			record.Ready, record.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runBrowse(cfgPath string, cfg *config.Config, durable persist.Store) error {
	if cfg.Remote.BaseURL == "" {
		return fmt.Errorf("no remote base URL configured (use -base-url or config)")
	}
	if cfg.App.UserID == "" {
		return fmt.Errorf("no user id configured (use -user-id or config)")
	}

	supply := remote.NewSupplyClient(remote.SupplyOptions{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.RemoteTimeoutDuration(),
	})
	decisions := remote.NewDecisionClient(remote.DecisionOptions{
		BaseURL: cfg.Remote.BaseURL,
		Timeout: cfg.RemoteTimeoutDuration(),
	})

	dispatcher := events.NewDispatcher()
	notices := events.NewChannelObserver(16,
		events.TypeSwipeUnsaved, events.TypeMatchDetected)
	dispatcher.Register(notices)

	eng, err := engine.New(engine.Options{
		Config:     cfg,
		Supply:     supply,
		Decisions:  decisionAdapter{decisions},
		Durable:    durable,
		Dispatcher: dispatcher,
	})
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	ctx := context.Background()

	// Edits to the config file take effect live; a filter change swaps
	// the active deck.
	watcher, err := config.NewWatcher(cfgPath, cfg, func(next *config.Config, filtersChanged bool) {
		eng.ApplyConfig(ctx, next, filtersChanged)
	})
	if err != nil {
		log.Printf("[Main] config watcher unavailable: %v", err)
	} else {
		defer func() { _ = watcher.Close() }()
	}

	eng.Mount(ctx, eng.ActiveKey())

	fmt.Printf("Deck %s (user %s). Commands: like, pass, undo, dismiss, show, quit\n",
		eng.ActiveKey(), cfg.App.UserID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		key := eng.ActiveKey()
		drainNotices(notices)
		printTop(eng, key)

		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		switch strings.TrimSpace(scanner.Text()) {
		case "like":
			if eng.Swipe(ctx, key, deck.DirectionLike) {
				eng.FinishAnimation()
			}
		case "pass":
			if eng.Swipe(ctx, key, deck.DirectionPass) {
				eng.FinishAnimation()
			}
		case "undo":
			if !eng.Undo(ctx, key) {
				fmt.Println("Nothing to undo.")
			}
		case "dismiss":
			if top, ok := eng.Top(key); ok {
				eng.Dismiss(ctx, key, top.ID)
			}
		case "show":
			state := eng.Snapshot(key)
			fmt.Printf("%d items, cursor %d, %d remaining, %d decided, ready=%v\n",
				len(state.Items), state.Cursor, state.Remaining(),
				len(state.DecidedIDs), state.Ready)
		case "quit", "exit":
			return nil
		case "":
		default:
			fmt.Println("Unknown command.")
		}
	}
}

func printTop(eng *engine.Engine, key deck.Key) {
	state := eng.Snapshot(key)
	top, ok := eng.Top(key)
	switch {
	case ok:
		fmt.Printf("[%d/%d] %s (%s)\n", state.Cursor+1, len(state.Items), top.Title, top.ID)
	case !state.Ready:
		fmt.Println("Loading…")
	case state.Empty():
		fmt.Println("Nothing available for these filters.")
	default:
		fmt.Println("Deck exhausted; fetching more…")
	}
}

func drainNotices(obs *events.ChannelObserver) {
	for {
		select {
		case e := <-obs.Events():
			switch payload := e.Payload.(type) {
			case events.SwipeUnsavedEvent:
				fmt.Printf("!! %s on %s: %s\n", payload.Direction, payload.CandidateID, payload.Reason)
			case events.MatchDetectedEvent:
				fmt.Printf("** It's a match: %s\n", payload.CandidateID)
			}
		default:
			return
		}
	}
}

// decisionAdapter narrows the concrete client to the engine's
// DecisionWriter interface.
type decisionAdapter struct {
	client *remote.DecisionClient
}

func (a decisionAdapter) RecordDecision(ctx context.Context, intentID, candidateID string, direction deck.Direction, targetType string) (*remote.DecisionResult, error) {
	return a.client.RecordDecision(ctx, intentID, candidateID, direction, targetType)
}

func (a decisionAdapter) RollbackDecision(ctx context.Context, candidateID string) error {
	return a.client.RollbackDecision(ctx, candidateID)
}

func (a decisionAdapter) RecordDismissal(ctx context.Context, candidateID string) error {
	return a.client.RecordDismissal(ctx, candidateID)
}

var _ swipe.DecisionWriter = decisionAdapter{}
