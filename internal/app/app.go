package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/askmynotes/askmynotes/internal/config"
	db "github.com/askmynotes/askmynotes/internal/core/database"
	"github.com/askmynotes/askmynotes/internal/core/ingestion_engine"
	"github.com/askmynotes/askmynotes/internal/core/llm"
	objectclient "github.com/askmynotes/askmynotes/internal/core/object-client"
	"github.com/askmynotes/askmynotes/internal/core/retrieval"
)

type App struct {
	DBClient     db.DbClient
	ObjectClient objectclient.ObjectClient
	Ingestor     ingestion_engine.Ingestor
	Retriever    *retrieval.Retriever
	LLM          *llm.GeminiLLM
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dbClient, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("database initialized and ready")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}

	llmProvider, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
	if err != nil {
		return nil, fmt.Errorf("couldn't initialize the answer generator: %w", err)
	}

	ingCfg := &ingestion_engine.IngestConfig{
		ChunkSize:    cfg.Tuning.ChunkSize,
		ChunkOverlap: cfg.Tuning.ChunkOverlap,
	}
	ingestor := ingestion_engine.NewNoteIngestor(
		dbClient, objClient, ingestion_engine.NewFileExtractor(), cfg.BucketName, ingCfg)

	retriever := retrieval.NewRetriever(dbClient, cfg.Tuning.TopK)

	server := NewServer(cfg, dbClient, objClient, ingestor, retriever, llmProvider)

	return &App{
		DBClient:     dbClient,
		ObjectClient: objClient,
		Ingestor:     ingestor,
		Retriever:    retriever,
		LLM:          llmProvider,
		Server:       server,
	}, nil
}

func (a *App) Close() {
	if a.LLM != nil {
		_ = a.LLM.Close()
	}
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
