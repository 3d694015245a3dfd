package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/nikita-bekish/qwen-analyzer/internal/backend"
	"github.com/nikita-bekish/qwen-analyzer/internal/cache"
	"github.com/nikita-bekish/qwen-analyzer/internal/config"
	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
	"github.com/nikita-bekish/qwen-analyzer/internal/indexer"
	"github.com/nikita-bekish/qwen-analyzer/internal/logparser"
	"github.com/nikita-bekish/qwen-analyzer/internal/profile"
	"github.com/nikita-bekish/qwen-analyzer/internal/service"
	"github.com/nikita-bekish/qwen-analyzer/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath, profilePath string
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/qwen-analyzer/config.yaml if not provided)")
	flag.StringVar(&profilePath, "profile", "", "Path to user profile YAML (overrides config)")
	flag.Parse()
	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Usage: qwen-analyzer [--config=config.yaml] [--profile=profile.yaml] errors.jsonl")
		os.Exit(1)
	}
	corpusPath := args[0]

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if profilePath == "" {
		profilePath = cfg.Profile.Path
	}

	log, err := buildLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	raw, records, err := logparser.ParseFile(corpusPath)
	if err != nil {
		log.Fatal("corpus load failed", zap.Error(err))
	}
	log.Info("corpus loaded", zap.String("path", corpusPath), zap.Int("records", len(records)))

	client, err := backend.NewClient(backend.Config{
		BaseURL:    cfg.Backend.BaseURL,
		APIKeyEnv:  cfg.Backend.APIKeyEnv,
		EmbedModel: cfg.Backend.EmbedModel,
		ChatModel:  cfg.Backend.ChatModel,
		Timeout:    time.Duration(cfg.Backend.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Backend.MaxRetries,
	}, log)
	if err != nil {
		log.Fatal("backend init failed", zap.Error(err))
	}

	ix := indexer.New(client, cache.New(cfg.Cache.Dir), log)
	index, err := ix.Build(context.Background(), filepath.Base(corpusPath), raw, records, func(done, total int) {
		fmt.Printf("\rИндексация: %d/%d", done, total)
		if done == total {
			fmt.Println()
		}
	})
	if err != nil {
		log.Fatal("indexing failed", zap.Error(err))
	}

	persona := loadPersona(profilePath, log)
	analyzer := service.NewAnalyzer(index, persona, client, client, cfg.Retrieval.TopK, log)

	m := tui.New(analyzer, persona.Greeting())
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal("tui failed", zap.Error(err))
	}
}

// loadPersona degrades to depersonalized mode on any profile problem; a
// broken or absent profile never blocks the session.
func loadPersona(path string, log *zap.Logger) domain.Personalization {
	p, err := profile.Load(path)
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrUnavailable):
			log.Info("no user profile, running depersonalized", zap.String("path", path))
		default:
			log.Warn("profile rejected, running depersonalized", zap.Error(err))
		}
		return profile.NewContext(nil)
	}
	log.Info("profile loaded", zap.String("user", p.Name))
	return profile.NewContext(p)
}

func buildLogger(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.AddSync(os.Stderr),
		lvl,
	)
	return zap.New(core), nil
}
