package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"quiz-forge/internal/adapter"
	"quiz-forge/internal/adapter/quizgen"
	"quiz-forge/internal/cache"
	"quiz-forge/internal/config"
	"quiz-forge/internal/database"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/logger"
	"quiz-forge/internal/repository"
	"quiz-forge/internal/service"

	"go.uber.org/zap"
)

func main() {
	topicKey := flag.String("topic-key", "", "topic key the new version is stored under")
	topic := flag.String("topic", "", "topic text sent to the generator (defaults to the topic key)")
	difficulty := flag.String("difficulty", "mixed", "beginner, intermediate, advanced, master or mixed")
	count := flag.Int("count", 10, "number of questions")
	dryRun := flag.Bool("dry-run", false, "generate and print questions without storing a version")
	flag.Parse()

	if *topicKey == "" && *topic == "" {
		fmt.Fprintln(os.Stderr, "either -topic-key or -topic is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Initialize(cfg.Logger); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	l := logger.Get()

	model, err := quizgen.NewModel(cfg.LLM)
	if err != nil {
		l.Fatal("Failed to create LLM client", zap.Error(err))
	}
	generationService := service.NewGenerationService(
		quizgen.NewLLMQuestionBackend(model, cfg.LLM, l),
		service.NewNormalizer(cfg.Generation.StrictAnswerPolicy),
		service.NewOptionRandomizer(nil),
		cfg.Generation,
		l,
	)

	ctx := context.Background()

	if *dryRun {
		quizService := service.NewQuizService(generationService, nil, nil, nil, cfg, l)
		resp, err := quizService.GenerateQuestions(ctx, &dto.GenerateQuestionsRequest{
			Topic:      firstNonEmpty(*topic, *topicKey),
			Difficulty: *difficulty,
			Count:      *count,
		})
		if err != nil {
			l.Fatal("Generation failed", zap.Error(err))
		}
		printJSON(resp)
		return
	}

	if *topicKey == "" {
		l.Fatal("-topic-key is required unless -dry-run is set")
	}

	db, err := database.NewSQLXOracleDB(cfg.GetDSN())
	if err != nil {
		l.Fatal("Failed to connect to Oracle database", zap.Error(err))
	}
	defer db.Close()

	versionRepo := repository.NewQuizVersionDatabaseAdapter(db)

	var (
		cacheAdapter domain.Cache
		topicLocker  domain.TopicLocker
	)
	if redisClient, err := cache.NewRedisClient(cfg.Redis); err != nil {
		l.Warn("Redis cache is not available. Running without cache.", zap.Error(err))
		topicLocker = adapter.NewLocalTopicLocker(cfg.Lifecycle.LockTTL)
	} else {
		defer redisClient.Close()
		cacheAdapter = adapter.NewRedisCacheAdapter(redisClient)
		topicLocker = adapter.NewRedisTopicLocker(redisClient, cfg.Lifecycle.LockTTL)
	}

	versionService := service.NewVersionService(versionRepo, repository.NewTransactionManagerAdapter(db), topicLocker, cfg.Lifecycle, l)
	quizService := service.NewQuizService(generationService, versionService, versionRepo, cacheAdapter, cfg, l)

	l.Info("Generating quiz version", zap.String("topic_key", *topicKey), zap.String("difficulty", *difficulty), zap.Int("count", *count))
	resp, err := quizService.CreateQuiz(ctx, &dto.CreateQuizRequest{
		TopicKey:   *topicKey,
		Topic:      *topic,
		Difficulty: *difficulty,
		Count:      *count,
	})
	if err != nil {
		l.Fatal("Quiz generation failed", zap.Error(err))
	}
	l.Info("Quiz version promoted", zap.String("version_id", resp.ID), zap.String("outcome", resp.Outcome))
	printJSON(resp)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		logger.Get().Error("Failed to write output", zap.Error(err))
	}
}
