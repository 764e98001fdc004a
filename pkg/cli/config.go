package cli

import (
	"context"

	"github.com/bankrag/bankrag/pkg/adapter"
	"github.com/bankrag/bankrag/pkg/interfaces"
	"github.com/bankrag/bankrag/pkg/policy"
	"github.com/bankrag/bankrag/pkg/repository"
	"github.com/bankrag/bankrag/pkg/route"
	"github.com/bankrag/bankrag/pkg/usecase/ask"
	"github.com/bankrag/bankrag/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

const (
	backendOllama = "ollama"
	backendGemini = "gemini"

	storeSQLite    = "sqlite"
	storeFirestore = "firestore"
)

// config holds configuration values
type config struct {
	// Model backend
	backend              string
	ollamaURL            string
	ollamaModel          string
	ollamaEmbeddingModel string
	geminiProject        string
	geminiLocation       string
	geminiAPIKey         string
	geminiModel          string
	geminiEmbeddingModel string

	// Vector store
	store      string
	dbDir      string
	project    string
	database   string
	collection string

	// Routing and retrieval
	k         int64
	rulesPath string
	policyDir string

	// Audit
	auditDataset string
	auditTable   string
}

// llm is a backend serving both embeddings and generation
type llm interface {
	interfaces.Embedder
	interfaces.Generator
}

// backendFlags returns flags for the embedding and generation backend
func backendFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "backend",
			Aliases:     []string{"b"},
			Usage:       "Model backend (ollama, gemini)",
			Value:       backendOllama,
			Sources:     cli.EnvVars("BANKRAG_BACKEND"),
			Destination: &cfg.backend,
		},
		&cli.StringFlag{
			Name:        "ollama-url",
			Usage:       "Ollama server URL",
			Value:       adapter.DefaultOllamaURL,
			Sources:     cli.EnvVars("OLLAMA_HOST"),
			Destination: &cfg.ollamaURL,
		},
		&cli.StringFlag{
			Name:        "ollama-model",
			Usage:       "Ollama generation model",
			Value:       adapter.DefaultOllamaGenerateModel,
			Sources:     cli.EnvVars("BANKRAG_OLLAMA_MODEL"),
			Destination: &cfg.ollamaModel,
		},
		&cli.StringFlag{
			Name:        "ollama-embedding-model",
			Usage:       "Ollama embedding model",
			Value:       adapter.DefaultOllamaEmbeddingModel,
			Sources:     cli.EnvVars("BANKRAG_OLLAMA_EMBEDDING_MODEL"),
			Destination: &cfg.ollamaEmbeddingModel,
		},
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini on Vertex AI",
			Sources:     cli.EnvVars("GEMINI_PROJECT_ID"),
			Destination: &cfg.geminiProject,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini",
			Value:       "us-central1",
			Sources:     cli.EnvVars("GEMINI_LOCATION"),
			Destination: &cfg.geminiLocation,
		},
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini Developer API key (used instead of Vertex AI when set)",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini generation model",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("BANKRAG_GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
		&cli.StringFlag{
			Name:        "gemini-embedding-model",
			Usage:       "Gemini embedding model",
			Value:       "gemini-embedding-001",
			Sources:     cli.EnvVars("BANKRAG_GEMINI_EMBEDDING_MODEL"),
			Destination: &cfg.geminiEmbeddingModel,
		},
	}
}

// storeFlags returns flags for the vector store
func storeFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "store",
			Aliases:     []string{"s"},
			Usage:       "Vector store (sqlite, firestore)",
			Value:       storeSQLite,
			Sources:     cli.EnvVars("BANKRAG_STORE"),
			Destination: &cfg.store,
		},
		&cli.StringFlag{
			Name:        "db-dir",
			Usage:       "Directory of the on-disk vector store",
			Value:       "bank_db",
			Sources:     cli.EnvVars("BANKRAG_DB_DIR"),
			Destination: &cfg.dbDir,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Firestore collection of ingested chunks",
			Value:       repository.DefaultCollection,
			Sources:     cli.EnvVars("BANKRAG_COLLECTION"),
			Destination: &cfg.collection,
		},
	}
}

// askFlags returns flags for routing, retrieval and auditing of queries
func askFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "k",
			Usage:       "Number of fragments retrieved per question",
			Value:       ask.DefaultK,
			Sources:     cli.EnvVars("BANKRAG_K"),
			Destination: &cfg.k,
		},
		&cli.StringFlag{
			Name:        "rules",
			Usage:       "YAML file replacing the built-in routing keyword table",
			Sources:     cli.EnvVars("BANKRAG_RULES"),
			Destination: &cfg.rulesPath,
		},
		&cli.StringFlag{
			Name:        "policy-dir",
			Usage:       "Directory of Rego policies (package route) overriding routing decisions",
			Sources:     cli.EnvVars("BANKRAG_POLICY_DIR"),
			Destination: &cfg.policyDir,
		},
	}
}

// auditFlags returns flags for the BigQuery query audit
func auditFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "audit-dataset",
			Usage:       "BigQuery dataset for the query audit (disabled when empty)",
			Sources:     cli.EnvVars("BANKRAG_AUDIT_DATASET"),
			Destination: &cfg.auditDataset,
		},
		&cli.StringFlag{
			Name:        "audit-table",
			Usage:       "BigQuery table for the query audit",
			Value:       "queries",
			Sources:     cli.EnvVars("BANKRAG_AUDIT_TABLE"),
			Destination: &cfg.auditTable,
		},
	}
}

// newLLM creates the embedding and generation backend
func (cfg *config) newLLM(ctx context.Context) (llm, error) {
	switch cfg.backend {
	case backendOllama:
		if cfg.ollamaURL == "" {
			return nil, goerr.New("ollama-url is required")
		}
		return adapter.NewOllama(cfg.ollamaURL,
			adapter.WithOllamaGenerativeModel(cfg.ollamaModel),
			adapter.WithOllamaEmbeddingModel(cfg.ollamaEmbeddingModel),
		), nil

	case backendGemini:
		opts := []adapter.GeminiOption{
			adapter.WithGenerativeModel(cfg.geminiModel),
			adapter.WithEmbeddingModel(cfg.geminiEmbeddingModel),
		}
		if cfg.geminiAPIKey != "" {
			return adapter.NewGeminiWithAPIKey(ctx, cfg.geminiAPIKey, opts...)
		}
		if cfg.geminiProject == "" {
			return nil, goerr.New("gemini-project or gemini-api-key is required")
		}
		if cfg.geminiLocation == "" {
			return nil, goerr.New("gemini-location is required")
		}
		return adapter.NewGemini(ctx, cfg.geminiProject, cfg.geminiLocation, opts...)

	default:
		return nil, goerr.New("unknown backend", goerr.V("backend", cfg.backend))
	}
}

// repositoryCloser is a vector store holding an open handle
type repositoryCloser interface {
	interfaces.ChunkRepository
	Close() error
}

// newRepository creates the vector store. With create false the on-disk store
// must already exist.
func (cfg *config) newRepository(ctx context.Context, create bool) (repositoryCloser, error) {
	switch cfg.store {
	case storeSQLite:
		if cfg.dbDir == "" {
			return nil, goerr.New("db-dir is required")
		}
		if create {
			return repository.NewSQLite(cfg.dbDir)
		}
		return repository.OpenSQLite(cfg.dbDir)

	case storeFirestore:
		if cfg.project == "" {
			return nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, goerr.New("database is required")
		}
		repo, err := repository.New(ctx, cfg.project, cfg.database, repository.WithCollection(cfg.collection))
		if err != nil {
			return nil, goerr.Wrap(err, "failed to create repository")
		}
		return repo, nil

	default:
		return nil, goerr.New("unknown store", goerr.V("store", cfg.store))
	}
}

// newRouter creates the query router: the keyword table, optionally overridden by Rego policies
func (cfg *config) newRouter(ctx context.Context) (interfaces.Router, error) {
	table := route.DefaultTable()
	if cfg.rulesPath != "" {
		loaded, err := route.LoadTable(cfg.rulesPath)
		if err != nil {
			return nil, err
		}
		table = loaded
	}

	if cfg.policyDir == "" {
		return table, nil
	}

	router, err := policy.New(ctx, cfg.policyDir, table)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load routing policy", goerr.V("dir", cfg.policyDir))
	}
	return router, nil
}

// newBigQuery creates the query audit client
func (cfg *config) newBigQuery(ctx context.Context) (*adapter.BigQuery, error) {
	if cfg.project == "" {
		return nil, goerr.New("project is required for the query audit")
	}
	bq, err := adapter.NewBigQuery(ctx, cfg.project, cfg.auditDataset, cfg.auditTable)
	if err != nil {
		return nil, err
	}
	return bq, nil
}

// newAskUseCase wires router, retriever, generator and the optional audit sink.
// The returned function releases every opened handle.
func (cfg *config) newAskUseCase(ctx context.Context) (*ask.UseCase, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logging.From(ctx).Warn("failed to close resource", "error", err)
			}
		}
	}

	router, err := cfg.newRouter(ctx)
	if err != nil {
		return nil, nil, err
	}

	backend, err := cfg.newLLM(ctx)
	if err != nil {
		return nil, nil, err
	}

	repo, err := cfg.newRepository(ctx, false)
	if err != nil {
		return nil, nil, err
	}
	closers = append(closers, repo.Close)

	opts := []ask.Option{ask.WithK(int(cfg.k))}
	if cfg.auditDataset != "" {
		bq, err := cfg.newBigQuery(ctx)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, bq.Close)

		if err := bq.EnsureTable(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, ask.WithAuditSink(bq))
	}

	uc := ask.New(router, ask.NewRetriever(backend, repo), backend, opts...)
	return uc, cleanup, nil
}
