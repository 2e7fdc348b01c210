package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/anidex/anidex/src/internal/adapters/catalog/jikan"
	"github.com/anidex/anidex/src/internal/adapters/enrich/nautiljon"
	"github.com/anidex/anidex/src/internal/adapters/gateway"
	"github.com/anidex/anidex/src/internal/adapters/kv"
	"github.com/anidex/anidex/src/internal/adapters/sqlstore"
	"github.com/anidex/anidex/src/internal/adapters/streaming"
	"github.com/anidex/anidex/src/internal/adapters/translate/gtx"
	"github.com/anidex/anidex/src/internal/config"
	"github.com/anidex/anidex/src/internal/logging"
	"github.com/anidex/anidex/src/internal/ports"
	"github.com/anidex/anidex/src/internal/render"
	"github.com/anidex/anidex/src/internal/services"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error().Err(err).Msg("failed to load configuration")
		os.Exit(1)
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := logging.WithComponent("main")
	log.Info().Msg("starting anidex chat gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := sqlstore.Open(cfg.Database.DSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open entity store")
	}
	defer store.Close()
	if err := store.InitSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to init schema")
	}

	kvStore, err := kv.Open(cfg.Session.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session store")
	}
	defer kvStore.Close()

	catalog := services.NewCatalogService(jikan.NewClient(jikan.Options{
		BaseURL:           cfg.Catalog.BaseURL,
		Timeout:           cfg.Catalog.Timeout,
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
		Burst:             cfg.Catalog.Burst,
		BreakerFailures:   cfg.Catalog.BreakerFailures,
		BreakerCooldown:   cfg.Catalog.BreakerCooldown,
	}), services.NewCatalogCache(store))

	// Optional collaborators stay nil interfaces when disabled.
	var translator ports.Translator
	if cfg.Translate.Enabled {
		translator = gtx.NewClient(cfg.Translate.BaseURL, cfg.Translate.Timeout)
	}
	var enricher ports.Enricher
	if cfg.Enrich.Enabled {
		enricher = nautiljon.NewScraper(cfg.Enrich.BaseURL, cfg.Enrich.Timeout)
	}

	sites := make([]streaming.Site, len(cfg.Streaming.Sites))
	for i, s := range cfg.Streaming.Sites {
		sites[i] = streaming.Site{Name: s.Name, SlugURL: s.SlugURL, SearchURL: s.SearchURL}
	}

	bot := services.NewBot(services.BotDeps{
		Store:        store,
		Sessions:     kvStore.Sessions(cfg.Session.TTL),
		Catalog:      catalog,
		Recommender:  services.NewRecommender(store, catalog),
		Achievements: services.NewAchievementService(store, catalog),
		Enrichment:   services.NewEnrichmentService(enricher, kvStore.Enrichments(cfg.Enrich.CacheTTL, cfg.Enrich.MissTTL)),
		Streaming:    streaming.NewProber(sites, cfg.Streaming.Timeout),
		Renderer:     render.NewRenderer(translator, cfg.Bot.DefaultLocale),
		Username:     cfg.Bot.Username,
	})

	opts := gateway.Options{
		Addr:         cfg.Server.Addr,
		RateLimit:    cfg.Server.RateLimit,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.Auth.IssuerURL != "" {
		verifier, err := gateway.NewOIDCVerifier(ctx, cfg.Auth.IssuerURL, cfg.Auth.Audience)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to set up bridge authentication")
		}
		opts.Verifier = verifier
	} else {
		log.Warn().Msg("auth.issuer_url not set, the interaction endpoint is unauthenticated")
	}

	slogger := slog.New(logging.NewSlogHandler(logging.WithComponent("supervisor")))
	root := suture.New("anidex", suture.Spec{
		EventHook:        (&sutureslog.Handler{Logger: slogger}).MustHook(),
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		Timeout:          15 * time.Second,
	})
	root.Add(gateway.NewServer(bot, opts))
	if cfg.Session.Dir != "" {
		root.Add(services.NewJanitor(kvStore, 10*time.Minute))
	}

	if err := root.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("supervisor stopped")
		os.Exit(1)
	}
	log.Info().Msg("anidex chat gateway stopped")
}
