package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/deenmate/sync-core/pkg/admission"
	"github.com/deenmate/sync-core/pkg/adminapi"
	"github.com/deenmate/sync-core/pkg/auth"
	"github.com/deenmate/sync-core/pkg/config"
	"github.com/deenmate/sync-core/pkg/health"
	"github.com/deenmate/sync-core/pkg/httpclient"
	"github.com/deenmate/sync-core/pkg/jobcontrol"
	"github.com/deenmate/sync-core/pkg/log"
	"github.com/deenmate/sync-core/pkg/prayer"
	"github.com/deenmate/sync-core/pkg/security"
	"github.com/deenmate/sync-core/pkg/storage"
	"github.com/deenmate/sync-core/pkg/syncengine"
	"github.com/deenmate/sync-core/pkg/types"

	"github.com/redis/go-redis/v9"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "sync-core",
	Short:   "Sync orchestration and access-control core for the content platform",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("sync-core version %s\ncommit: %s\n", Version, Commit))
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the admin API server and the scheduled sync jobs",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a YAML config file (falls back to defaults + env overrides)")
}

func runServe(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSONOutput,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := storage.Open(cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns, cfg.Postgres.MaxIdleConns, cfg.Postgres.BulkChunkSize)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer gateway.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	rateLimiter, err := admission.NewRateLimiter(ctx, redisClient, gateway)
	if err != nil {
		return fmt.Errorf("init rate limiter: %w", err)
	}
	ipBlock, err := admission.NewIPBlockChecker(ctx, gateway, time.Minute)
	if err != nil {
		return fmt.Errorf("init ip block checker: %w", err)
	}
	ipBlock.Start(ctx)
	defer ipBlock.Stop()

	requestLogger := admission.NewRequestLogger(gateway, 1024)
	pipeline := admission.NewPipeline(ipBlock, rateLimiter, requestLogger)

	tokens := auth.NewTokenIssuer(cfg.Auth.TokenSigningSecret, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	auditor := auth.NewAuditor(gateway)
	authService := auth.NewService(gateway, tokens, auditor, cfg.Auth.BcryptCost)

	secretsManager, err := security.NewSecretsManager(security.DeriveKeyFromServerSecret(cfg.Auth.TokenSigningSecret))
	if err != nil {
		return fmt.Errorf("init secrets manager: %w", err)
	}
	if err := seedProviderCredentials(ctx, gateway, secretsManager, cfg.Upstream.Providers); err != nil {
		return fmt.Errorf("seed provider credentials: %w", err)
	}

	client := httpclient.New(cfg.Upstream.UserAgent,
		httpclient.WithTimeout(cfg.Upstream.SyncTimeout),
		httpclient.WithRetryPolicy(httpclient.RetryPolicy{
			MaxAttempts: cfg.Upstream.MaxRetryAttempts,
			Backoff:     cfg.Upstream.RetryBackoff,
			RetryOn5xx:  true,
		}),
	)
	engine := syncengine.NewEngine(gateway, cfg.Sync.MinSyncInterval)

	quranSyncer := syncengine.NewQuranSyncer(client, gateway, engine, providerBaseURL(cfg, "quran"),
		cfg.Sync.TranslationLangs, cfg.Sync.TranslationFallback)
	hadithSyncer := syncengine.NewHadithSyncer(client, gateway, engine, providerBaseURL(cfg, "hadith"))
	audioSyncer := syncengine.NewAudioSyncer(client, gateway, engine, providerBaseURL(cfg, "audio"))
	financeSyncer := syncengine.NewFinanceSyncer(client, gateway, engine, providerBaseURL(cfg, "gold"))

	prayerSyncer := prayer.NewSyncer(client, gateway, engine, providerBaseURL(cfg, "prayer"))
	planner := prayer.NewPlanner(prayerSyncer, gateway, prayer.Config{
		MaxConcurrency:   cfg.Prayer.MaxConcurrency,
		PolitenessDelay:  cfg.Prayer.PolitenessDelay,
		MaxDateRangeDays: cfg.Prayer.MaxDateRangeDays,
	})

	prober := health.NewProber(
		health.NamedCheck{Name: "postgres", Checker: pingChecker{gateway}},
		health.NamedCheck{Name: "quran", Checker: health.NewHTTPChecker(providerBaseURL(cfg, "quran"))},
		health.NamedCheck{Name: "hadith", Checker: health.NewHTTPChecker(providerBaseURL(cfg, "hadith"))},
		health.NamedCheck{Name: "audio", Checker: health.NewHTTPChecker(providerBaseURL(cfg, "audio"))},
		health.NamedCheck{Name: "gold", Checker: health.NewHTTPChecker(providerBaseURL(cfg, "gold"))},
		health.NamedCheck{Name: "prayer", Checker: health.NewHTTPChecker(providerBaseURL(cfg, "prayer"))},
	)

	broker := jobcontrol.NewBroker()
	plane := jobcontrol.NewPlane(gateway, broker)
	registerRunners(plane, gateway, cfg, quranSyncer, hadithSyncer, audioSyncer, financeSyncer, planner)

	scheduler := jobcontrol.NewScheduler(plane)
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer scheduler.Stop()

	router := adminapi.NewRouter(adminapi.Deps{
		Gateway:     gateway,
		AuthService: authService,
		Tokens:      tokens,
		Auditor:     auditor,
		Admission:   pipeline,
		RateLimiter: rateLimiter,
		IPBlock:     ipBlock,
		Plane:       plane,
		Scheduler:   scheduler,
		Health:      prober,
		Sync: adminapi.SyncRunners{
			Quran:   quranSyncer,
			Hadith:  hadithSyncer,
			Audio:   audioSyncer,
			Finance: financeSyncer,
			Prayer:  planner,
		},
		CORSOrigins: cfg.Server.CORSOrigins,
		BcryptCost:  cfg.Auth.BcryptCost,
	})

	srv := &http.Server{
		Addr:         cfg.Server.BindAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Logger.Info().Str("addr", cfg.Server.BindAddr).Msg("admin api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("admin api server: %w", err)
	case <-sigCh:
		log.Logger.Info().Msg("shutdown signal received")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	log.Logger.Info().Msg("shutdown complete")
	return nil
}

func providerBaseURL(cfg *config.Config, name string) string {
	if p, ok := cfg.Upstream.Providers[name]; ok {
		return p.BaseURL
	}
	return ""
}

// seedProviderCredentials reads each configured provider's API key out
// of the environment variable it names and persists it encrypted, so
// an admin inspecting the database never sees the plaintext key. A
// provider with no APIKeyEnv, or whose env var is unset, is skipped
// silently: not every provider requires a key.
func seedProviderCredentials(ctx context.Context, gateway storage.Gateway, sm *security.SecretsManager, providers map[string]config.Provider) error {
	for name, p := range providers {
		if p.APIKeyEnv == "" {
			continue
		}
		plaintext := os.Getenv(p.APIKeyEnv)
		if plaintext == "" {
			continue
		}
		encrypted, err := sm.EncryptCredential(plaintext)
		if err != nil {
			return fmt.Errorf("encrypt credential for %s: %w", name, err)
		}
		if err := gateway.SaveProviderCredential(ctx, &types.ProviderCredential{
			Provider:     name,
			EncryptedKey: encrypted,
			UpdatedAt:    time.Now(),
		}); err != nil {
			return fmt.Errorf("save credential for %s: %w", name, err)
		}
	}
	return nil
}

// pingChecker adapts storage.Gateway.Ping to health.Checker so
// Postgres reachability shows up in the same readiness snapshot as
// the upstream content providers.
type pingChecker struct {
	gateway storage.Gateway
}

func (p pingChecker) Check(ctx context.Context) health.Result {
	start := time.Now()
	if err := p.gateway.Ping(ctx); err != nil {
		return health.Result{Healthy: false, Message: err.Error(), CheckedAt: start, Duration: time.Since(start)}
	}
	return health.Result{Healthy: true, Message: "ok", CheckedAt: start, Duration: time.Since(start)}
}

func (p pingChecker) Type() health.CheckType { return health.CheckTypeTCP }

// registerRunners wires every domain syncer into the job control plane
// under its job type, so a scheduled or manually triggered run for
// "quran" dispatches to QuranSyncer.SyncChapters, then SyncVerses and
// SyncTranslations for every chapter, and similarly for the other
// domains. Checkpoints sit between upstream calls so a pause/cancel
// takes effect between chapters/reciters/collections rather than only
// at the start or end of the whole run.
func registerRunners(
	plane *jobcontrol.Plane,
	gateway storage.Gateway,
	cfg *config.Config,
	quran *syncengine.QuranSyncer,
	hadith *syncengine.HadithSyncer,
	audio *syncengine.AudioSyncer,
	finance *syncengine.FinanceSyncer,
	planner *prayer.Planner,
) {
	plane.RegisterRunner(types.JobTypeQuran, func(h *jobcontrol.RunHandle) error {
		if _, err := quran.SyncChapters(h.Context(), syncengine.Options{}); err != nil {
			return err
		}
		for chapter := 1; chapter <= cfg.Sync.ChapterCount; chapter++ {
			if err := h.CheckPoint(); err != nil {
				return err
			}
			if _, err := quran.SyncVerses(h.Context(), chapter, syncengine.Options{}); err != nil {
				return err
			}
			if _, err := quran.SyncTranslations(h.Context(), chapter, syncengine.Options{}); err != nil {
				return err
			}
		}
		return nil
	})

	plane.RegisterRunner(types.JobTypeHadith, func(h *jobcontrol.RunHandle) error {
		for _, slug := range cfg.Sync.HadithCollections {
			if err := h.CheckPoint(); err != nil {
				return err
			}
			if _, err := hadith.SyncCollection(h.Context(), slug, syncengine.Options{}); err != nil {
				return err
			}
		}
		return nil
	})

	plane.RegisterRunner(types.JobTypeAudio, func(h *jobcontrol.RunHandle) error {
		if _, err := audio.SyncReciters(h.Context(), syncengine.Options{}); err != nil {
			return err
		}
		if err := h.CheckPoint(); err != nil {
			return err
		}
		reciters, err := gateway.ListReciters(h.Context())
		if err != nil {
			return err
		}
		for _, r := range reciters {
			if err := h.CheckPoint(); err != nil {
				return err
			}
			if _, err := audio.SyncAudioFiles(h.Context(), r.Slug, r.UpstreamID, syncengine.Options{}); err != nil {
				return err
			}
		}
		return nil
	})

	plane.RegisterRunner(types.JobTypeFinance, func(h *jobcontrol.RunHandle) error {
		_, err := finance.SyncGoldPrice(h.Context(), cfg.Sync.GoldMarket, syncengine.Options{})
		return err
	})

	plane.RegisterRunner(types.JobTypeZakat, func(h *jobcontrol.RunHandle) error {
		_, err := finance.SyncZakatNisabRates(h.Context(), syncengine.Options{})
		return err
	})

	plane.RegisterRunner(types.JobTypePrayer, func(h *jobcontrol.RunHandle) error {
		_, err := planner.Prewarm(h.Context(), 3)
		return err
	})
}
