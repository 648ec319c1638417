package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/docfold/docfold-cli/internal/adapters/driven/config/file"
	embedcache "github.com/docfold/docfold-cli/internal/adapters/driven/embedding/cache"
	embedollama "github.com/docfold/docfold-cli/internal/adapters/driven/embedding/ollama"
	embedopenai "github.com/docfold/docfold-cli/internal/adapters/driven/embedding/openai"
	"github.com/docfold/docfold-cli/internal/adapters/driven/extract"
	llmollama "github.com/docfold/docfold-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/docfold/docfold-cli/internal/adapters/driven/llm/openai"
	"github.com/docfold/docfold-cli/internal/adapters/driven/storage/sqlite"
	"github.com/docfold/docfold-cli/internal/adapters/driven/vector/flat"
	"github.com/docfold/docfold-cli/internal/core/ports/driven"
	"github.com/docfold/docfold-cli/internal/core/ports/driving"
	"github.com/docfold/docfold-cli/internal/core/services"
	"github.com/docfold/docfold-cli/internal/logger"
)

// Package-level services shared by all commands. Populated by
// wireServices from the root command's PersistentPreRunE.
var (
	docStore  driven.DocumentStore
	embedder  driven.EmbeddingService
	llm       driven.LLMService
	registrar driving.Registrar
	ingestor  driving.Ingestor
	retriever driving.Retriever
	answerer  driving.Answerer
)

// dataDir resolves the state directory, defaulting to ~/.docfold.
func dataDir() (string, error) {
	if flagDataDir != "" {
		return flagDataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".docfold"), nil
}

// wireServices constructs the adapter stack and the core services.
// Already-populated services are kept, which is what lets tests inject
// fakes before executing a command.
func wireServices() error {
	if registrar != nil {
		return nil
	}

	dir, err := dataDir()
	if err != nil {
		return err
	}

	cfg, err := file.NewConfigStore(dir)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"))
	if err != nil {
		return fmt.Errorf("open prompts: %w", err)
	}

	store, err := sqlite.NewStore(filepath.Join(dir, "data"))
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}
	docStore = store

	vectorIndex, err := flat.NewStore(filepath.Join(dir, "index"))
	if err != nil {
		return fmt.Errorf("open vector index: %w", err)
	}

	embedder, err = buildEmbedder(cfg, dir)
	if err != nil {
		return err
	}
	llm = buildLLM(cfg)

	extractor := extract.NewRegistry()
	uploadsDir := filepath.Join(dir, "uploads")

	registrar = services.NewDocumentRegistry(docStore, extractor, uploadsDir)
	ingestor = services.NewIngestOrchestrator(docStore, extractor, embedder, vectorIndex, cfg)
	retriever = services.NewRetrievalService(docStore, embedder, vectorIndex)
	answerer = services.NewAnswerService(retriever, llm, prompts, cfg)

	logger.Debug("Services wired, data dir %s", dir)
	return nil
}

// buildEmbedder picks the embedding backend and wraps it in the file
// cache. OpenAI is used whenever an API key is present; otherwise a
// local Ollama instance is assumed.
func buildEmbedder(cfg driven.ConfigStore, dir string) (driven.EmbeddingService, error) {
	var upstream driven.EmbeddingService

	apiKey := os.Getenv("OPENAI_API_KEY")
	provider := cfg.GetString("embedding.provider")
	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	switch provider {
	case "openai":
		svc, err := embedopenai.NewEmbeddingService(embedopenai.Config{
			APIKey: apiKey,
			Model:  cfg.GetString(driven.ConfigEmbedModel),
		})
		if err != nil {
			return nil, fmt.Errorf("embedding service: %w", err)
		}
		upstream = svc
	case "ollama":
		upstream = embedollama.NewEmbeddingService(embedollama.Config{
			BaseURL: os.Getenv("OLLAMA_HOST"),
			Model:   cfg.GetString(driven.ConfigEmbedModel),
		})
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", provider)
	}

	cacheDir := filepath.Join(dir, "cache", "embeddings")
	cached, err := embedcache.New(upstream, cacheDir)
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}
	return cached, nil
}

// buildLLM picks the answer model backend, mirroring buildEmbedder's
// provider selection.
func buildLLM(cfg driven.ConfigStore) driven.LLMService {
	apiKey := os.Getenv("OPENAI_API_KEY")
	provider := cfg.GetString("llm.provider")
	if provider == "" {
		if apiKey != "" {
			provider = "openai"
		} else {
			provider = "ollama"
		}
	}

	if provider == "openai" && apiKey != "" {
		svc, err := llmopenai.NewLLMService(llmopenai.Config{
			APIKey: apiKey,
			Model:  cfg.GetString(driven.ConfigGenerateModel),
		})
		if err == nil {
			return svc
		}
		logger.Warn("OpenAI LLM unavailable, falling back to Ollama: %v", err)
	}

	return llmollama.NewLLMService(llmollama.Config{
		BaseURL: os.Getenv("OLLAMA_HOST"),
		Model:   cfg.GetString(driven.ConfigGenerateModel),
	})
}

// closeServices releases adapter resources after a command finishes.
func closeServices() {
	if embedder != nil {
		_ = embedder.Close()
	}
	if llm != nil {
		_ = llm.Close()
	}
	if docStore != nil {
		_ = docStore.Close()
	}
}
