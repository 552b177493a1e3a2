// Command agent is an interactive REPL for running resumable, sandboxed
// agent sessions from the terminal.
//
// Configuration comes from flags or the environment: ANTHROPIC_API_KEY is
// always required, DATABASE_URL is required unless --ephemeral is set.
package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	agent "github.com/hritik2002/runable-take-home-assignment"
	"github.com/hritik2002/runable-take-home-assignment/sandbox"
	"github.com/hritik2002/runable-take-home-assignment/storage"
	"github.com/hritik2002/runable-take-home-assignment/tool/builtin"
)

var (
	flagSession   string
	flagModel     string
	flagDriver    string
	flagEphemeral bool
	flagVerbose   bool
)

func main() {
	root := &cobra.Command{
		Use:   "agent",
		Short: "Interactive sandboxed coding agent with resumable sessions",
		Long: `agent runs a conversational coding agent whose shell commands execute in
a per-session Docker sandbox. Conversations persist in PostgreSQL, so a
session can be resumed across restarts with --session.`,
		SilenceUsage: true,
		RunE:         run,
	}

	root.Flags().StringVarP(&flagSession, "session", "s", "", "session id to resume (empty starts a new session)")
	root.Flags().StringVarP(&flagModel, "model", "m", "claude-sonnet-4-5-20250929", "model id")
	root.Flags().StringVar(&flagDriver, "driver", "pgx", "postgres driver: pgx or sql")
	root.Flags().BoolVar(&flagEphemeral, "ephemeral", false, "use in-memory storage (session is lost on exit)")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	viper.SetEnvPrefix("")
	viper.AutomaticEnv()
	viper.BindEnv("anthropic_api_key", "ANTHROPIC_API_KEY")
	viper.BindEnv("database_url", "DATABASE_URL")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newZapLogger(flagVerbose)
	if err != nil {
		return err
	}
	defer logger.Sync()

	apiKey := viper.GetString("anthropic_api_key")
	if apiKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	store, cleanup, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	ag, err := agent.New(store, sandbox.NewDockerRunner(), agent.Config{
		Client: &client,
		Model:  flagModel,
	},
		agent.WithTools(builtin.NewFileTools(".").All()...),
		agent.WithLogger(&zapAdapter{logger.Sugar()}),
	)
	if err != nil {
		return err
	}

	session, err := ag.Session(ctx, flagSession)
	if err != nil {
		return err
	}
	fmt.Printf("session: %s\n", session.ID)

	if err := ag.EnsureSandbox(ctx, session.ID); err != nil {
		return fmt.Errorf("sandbox unavailable: %w", err)
	}

	if flagSession != "" {
		if err := printHistory(ctx, ag, session.ID); err != nil {
			return err
		}
	}

	return repl(ctx, ag, session.ID)
}

// openStore picks the storage backend from the flags and environment.
func openStore(ctx context.Context) (storage.Store, func(), error) {
	if flagEphemeral {
		return storage.NewMemoryStore(), func() {}, nil
	}

	databaseURL := viper.GetString("database_url")
	if databaseURL == "" {
		return nil, nil, fmt.Errorf("DATABASE_URL is required (or pass --ephemeral)")
	}

	switch flagDriver {
	case "pgx":
		pool, err := pgxpool.New(ctx, databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store := storage.NewPostgresStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrating schema: %w", err)
		}
		return store, pool.Close, nil
	case "sql":
		db, err := sql.Open("postgres", databaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		store := storage.NewSQLStore(db)
		if err := store.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrating schema: %w", err)
		}
		return store, func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown driver %q (want pgx or sql)", flagDriver)
	}
}

// printHistory replays the stored conversation when resuming a session.
func printHistory(ctx context.Context, ag *agent.Agent, sessionID string) error {
	turns, err := ag.History(ctx, sessionID)
	if err != nil {
		return err
	}
	for _, turn := range turns {
		fmt.Printf("[%s] %s\n", turn.Role, turn.Content)
	}
	if len(turns) > 0 {
		fmt.Println("--- resumed ---")
	}
	return nil
}

func repl(ctx context.Context, ag *agent.Agent, sessionID string) error {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			return scanner.Err()
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			return nil
		}

		resp, err := ag.RunTurn(ctx, sessionID, input, func(delta string) {
			fmt.Print(delta)
		})
		fmt.Println()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if resp.Compacted {
			fmt.Println("(older conversation history was summarized)")
		}
	}
}

func newZapLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
	}
	return cfg.Build()
}

// zapAdapter bridges zap's sugared logger to the agent's Logger interface.
type zapAdapter struct {
	s *zap.SugaredLogger
}

func (z *zapAdapter) Debug(msg string, args ...any) { z.s.Debugw(msg, args...) }
func (z *zapAdapter) Info(msg string, args ...any)  { z.s.Infow(msg, args...) }
func (z *zapAdapter) Warn(msg string, args ...any)  { z.s.Warnw(msg, args...) }
func (z *zapAdapter) Error(msg string, args ...any) { z.s.Errorw(msg, args...) }
