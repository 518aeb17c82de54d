package main

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/database"
	"github.com/fadilmartias/job-matcher/internal/extraction"
	"github.com/fadilmartias/job-matcher/internal/logger"
	"github.com/fadilmartias/job-matcher/internal/notifier"
	"github.com/fadilmartias/job-matcher/internal/repository"
	"github.com/fadilmartias/job-matcher/internal/retry"
	"github.com/fadilmartias/job-matcher/internal/service"
	"github.com/fadilmartias/job-matcher/internal/usecase"
	"github.com/fadilmartias/job-matcher/internal/worker"
)

type provider interface {
	service.EmbeddingProvider
	service.ExtractionProvider
}

// deps is everything the commands share.
type deps struct {
	log  *zap.Logger
	db   *gorm.DB
	pool *worker.Pool

	jobs         *repository.JobRepository
	resumes      *repository.ResumeRepository
	applications *repository.ApplicationRepository

	embedding *usecase.EmbeddingUsecase
	matching  *usecase.MatchingUsecase
	insight   *usecase.InsightUsecase
	search    *usecase.SearchUsecase
	notifier  *notifier.JobMatchNotifier
	fetcher   *service.ResumeFetcher

	closers []func() error
}

func newLogger() (*zap.Logger, error) {
	appConfig := config.LoadAppConfig()
	log, err := logger.New(appConfig.LogJSON, appConfig.LogDebug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}
	return log.With(zap.String("app", app), zap.String("env", appConfig.Env)), nil
}

func wire(ctx context.Context, log *zap.Logger) (*deps, error) {
	appConfig := config.LoadAppConfig()
	providerConfig := config.LoadProviderConfig()

	db, err := database.Connect(config.LoadDBConfig(), appConfig, log)
	if err != nil {
		return nil, err
	}
	d := &deps{log: log, db: db}

	embedder, err := selectProvider(ctx, providerConfig.Embedding, providerConfig, log)
	if err != nil {
		return nil, err
	}
	extractor, err := selectProvider(ctx, providerConfig.Extraction, providerConfig, log)
	if err != nil {
		return nil, err
	}
	log.Info("providers selected",
		zap.String("embedding", embedder.Name()),
		zap.String("extraction", extractor.Name()),
		zap.Int("dimensions", providerConfig.Dimensions))

	d.jobs = repository.NewJobRepository(db)
	d.resumes = repository.NewResumeRepository(db)
	d.applications = repository.NewApplicationRepository(db)
	embeddings := repository.NewEmbeddingRepository(db)
	insights := repository.NewInsightRepository(db)
	users := repository.NewUserRepository(db)
	notifications := repository.NewNotificationRepository(db)

	d.fetcher = service.NewResumeFetcher(appConfig.TmpDir, appConfig.MaxUpload, providerConfig.Timeout, log)
	policy := func(stage string) retry.Policy { return usecase.StagePolicy(providerConfig, log, stage) }

	d.notifier = notifier.New(
		service.NewSMTPMailer(config.LoadMailConfig(), log),
		notifications,
		users,
		d.dedupGuard(ctx),
		log.Named("notifier"),
	)

	d.embedding = usecase.NewEmbeddingUsecase(usecase.EmbeddingDeps{
		Jobs:       d.jobs,
		Resumes:    d.resumes,
		Embeddings: embeddings,
		Embedder:   embedder,
		Fetcher:    d.fetcher,
		Extractor:  extraction.NewExtractor(log),
		Parser:     extraction.NewProfileParser(extractor, log),
	}, policy, log.Named("embedding"))
	d.matching = usecase.NewMatchingUsecase(d.jobs, d.resumes, d.applications, embeddings, d.notifier, config.LoadMatchingConfig(), log.Named("matching"))
	d.insight = usecase.NewInsightUsecase(d.jobs, d.resumes, insights, extractor, policy("insight"), log.Named("insight"))
	d.search = usecase.NewSearchUsecase(embeddings, embedder, policy("search"), config.LoadMatchingConfig().SearchLimit, log.Named("search"))

	d.pool = worker.New(config.LoadWorkerConfig(), log.Named("worker"))
	usecase.NewTasks(d.embedding, d.matching, d.applications, d.pool, log.Named("tasks")).Register(d.pool)

	return d, nil
}

func selectProvider(ctx context.Context, name string, pc *config.ProviderConfig, log *zap.Logger) (provider, error) {
	switch name {
	case "gemini":
		s, err := service.NewGeminiService(ctx, config.LoadGeminiConfig(), pc, log)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "openrouter":
		return service.NewOpenRouterService(config.LoadOpenRouterConfig(), pc, log), nil
	}
	return nil, fmt.Errorf("unknown provider %q (want gemini or openrouter)", name)
}

// dedupGuard returns the redis guard when REDIS_ADDR is set and reachable.
func (d *deps) dedupGuard(ctx context.Context) notifier.Guard {
	rc := config.LoadRedisConfig()
	if rc.Addr == "" {
		d.log.Info("REDIS_ADDR not set, notification dedup disabled")
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: rc.Addr, Password: rc.Password, DB: rc.DB})
	d.closers = append(d.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		d.log.Warn("redis unreachable, dedup guard will fail open", zap.String("addr", rc.Addr), zap.Error(err))
	}
	return notifier.NewRedisGuard(client, rc.DedupTTL)
}

func (d *deps) close() {
	d.notifier.Wait()
	for _, c := range d.closers {
		if err := c(); err != nil {
			d.log.Warn("closing resource", zap.Error(err))
		}
	}
	if sqlDB, err := d.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = d.log.Sync()
}
