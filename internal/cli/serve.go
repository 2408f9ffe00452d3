package cli

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/soyeahso/interviewd/internal/config"
	"github.com/soyeahso/interviewd/internal/failover"
	"github.com/soyeahso/interviewd/internal/logging"
	"github.com/soyeahso/interviewd/internal/provider"
	"github.com/soyeahso/interviewd/internal/session"
	sigsrv "github.com/soyeahso/interviewd/internal/signal"
	"github.com/soyeahso/interviewd/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port     int
		bookings []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the interview session server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Signal.Port = port
			}
			if logLevel == "" {
				log = logging.New(nil, cfg.Logging.Level)
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			deps := session.Deps{}

			switch cfg.Store.Driver {
			case "redis":
				opt, err := redis.ParseURL(cfg.Store.RedisURL)
				if err != nil {
					return fmt.Errorf("parsing redis url: %w", err)
				}
				client := redis.NewClient(opt)
				defer client.Close()
				deps.Store = store.NewRedisTranscriptStore(client, 0)
				log.Info().Msg("using Redis transcript store")
			case "memory":
				deps.Store = store.NewMemoryTranscriptStore()
				log.Info().Msg("using in-memory transcript store")
			default:
				dbPath := cfg.Store.Path
				if dbPath == "" {
					dbPath = filepath.Join(filepath.Dir(cfgPath), "interviewd.db")
				}
				db, err := store.Open(dbPath, log)
				if err != nil {
					return fmt.Errorf("opening database: %w", err)
				}
				defer db.Close()

				ts := store.NewSQLiteTranscriptStore(db)
				bs := store.NewBookingStore(db)
				deps.Store = ts
				deps.Creator = ts
				deps.Bookings = bs
				deps.Resolver = bs
				log.Info().Str("path", dbPath).Msg("using SQLite transcript store")
			}

			deps.Guards.Generate, err = generateGuardFactory(ctx, cfg.Providers.Generation)
			if err != nil {
				return err
			}
			deps.Guards.Transcribe, err = transcribeGuardFactory(ctx, cfg.Providers.Recognition)
			if err != nil {
				return err
			}
			deps.Synth = buildSynthesizer(cfg.Providers.Synthesis)

			hub := sigsrv.NewHub(log)
			deps.Emitter = hub
			deps.Signaler = hub

			manager := session.NewManager(cfg, deps, log)

			for _, bookingID := range bookings {
				sess, err := manager.Start(ctx, bookingID, "")
				if err != nil {
					return fmt.Errorf("starting session for booking %s: %w", bookingID, err)
				}
				log.Info().
					Str("sessionId", sess.ID).
					Str("bookingId", bookingID).
					Msgf("session live at /session/%s/ws", sess.ID)
			}

			srv := sigsrv.NewServer(cfg.Signal, hub, manager, manager.Has, log)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override signal server port")
	cmd.Flags().StringArrayVar(&bookings, "booking", nil, "booking to start a session for at launch (repeatable)")

	return cmd
}

// generateGuardFactory builds per-session generation guards from config.
// Provider clients are shared; failover state is per session.
func generateGuardFactory(ctx context.Context, cfg config.CapabilityConfig) (func() *failover.Guard[provider.GenerateRequest, string], error) {
	primary, err := buildGenerator(ctx, cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("building primary generator: %w", err)
	}
	secondary, err := buildGenerator(ctx, cfg.Secondary)
	if err != nil {
		return nil, fmt.Errorf("building secondary generator: %w", err)
	}

	guardCfg := failover.Config{
		Capability:       "generation",
		FailureThreshold: cfg.FailureThreshold,
		CallTimeout:      time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		Recoverable:      provider.IsRecoverable,
	}
	return func() *failover.Guard[provider.GenerateRequest, string] {
		return failover.New(guardCfg,
			failover.Provider[provider.GenerateRequest, string]{Name: primary.Name(), Call: primary.Generate},
			failover.Provider[provider.GenerateRequest, string]{Name: secondary.Name(), Call: secondary.Generate},
			log,
		)
	}, nil
}

// transcribeGuardFactory builds per-session recognition guards, or nil when
// recognition is not configured (clients then send recognized text frames).
func transcribeGuardFactory(ctx context.Context, cfg config.CapabilityConfig) (func() *failover.Guard[provider.TranscribeRequest, string], error) {
	if cfg.Primary.Name == "" {
		return nil, nil
	}

	primary, err := buildTranscriber(ctx, cfg.Primary)
	if err != nil {
		return nil, fmt.Errorf("building primary transcriber: %w", err)
	}
	secondary, err := buildTranscriber(ctx, cfg.Secondary)
	if err != nil {
		return nil, fmt.Errorf("building secondary transcriber: %w", err)
	}

	guardCfg := failover.Config{
		Capability:       "recognition",
		FailureThreshold: cfg.FailureThreshold,
		CallTimeout:      time.Duration(cfg.CallTimeoutSeconds) * time.Second,
		Recoverable:      provider.IsRecoverable,
	}
	return func() *failover.Guard[provider.TranscribeRequest, string] {
		return failover.New(guardCfg,
			failover.Provider[provider.TranscribeRequest, string]{Name: primary.Name(), Call: primary.Transcribe},
			failover.Provider[provider.TranscribeRequest, string]{Name: secondary.Name(), Call: secondary.Transcribe},
			log,
		)
	}, nil
}

func buildGenerator(ctx context.Context, entry config.ProviderEntry) (provider.Generator, error) {
	switch entry.Name {
	case "gemini":
		return provider.NewGeminiGenerator(ctx, entry.APIKey, entry.Model)
	case "mock", "":
		return &provider.MockGenerator{ProviderName: "mock"}, nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", entry.Name)
	}
}

func buildTranscriber(ctx context.Context, entry config.ProviderEntry) (provider.Transcriber, error) {
	switch entry.Name {
	case "google-stt":
		return provider.NewGoogleTranscriber(ctx, entry.APIKey)
	case "mock", "":
		return &provider.MockTranscriber{ProviderName: "mock"}, nil
	default:
		return nil, fmt.Errorf("unknown recognition provider %q", entry.Name)
	}
}

func buildSynthesizer(cfg config.SynthesisConfig) provider.Synthesizer {
	if cfg.Name == "" {
		return nil
	}
	// Playback is owned by the room infrastructure; the mock stands in for
	// deployments without a synthesis backend.
	return &provider.MockSynthesizer{ProviderName: cfg.Name}
}
