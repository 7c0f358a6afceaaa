package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/houyudong/deepthink/internal/archive"
	"github.com/houyudong/deepthink/internal/config"
	"github.com/houyudong/deepthink/internal/questions"
	"github.com/houyudong/deepthink/internal/thinking"
	"github.com/houyudong/deepthink/internal/transport"
)

const defaultBaseURL = "http://localhost:8000"

type envOptions struct {
	BaseURL     string
	Role        string
	PageContext string
	NoArchive   bool
	DataDir     string
}

type runtimeEnv struct {
	Manager   *thinking.Manager
	Questions *questions.Service
	Archive   *archive.Store // nil when archiving is disabled

	mu      sync.Mutex
	cfg     *config.Config
	flags   envOptions
	watcher *config.Watcher
}

// Role returns the effective role: flag, then config, then "student".
func (r *runtimeEnv) Role() string {
	if r.flags.Role != "" {
		return r.flags.Role
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.Role != "" {
		return r.cfg.Role
	}
	return "student"
}

// PageContext returns the effective page context.
func (r *runtimeEnv) PageContext() string {
	if r.flags.PageContext != "" {
		return r.flags.PageContext
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.PageContext != "" {
		return r.cfg.PageContext
	}
	return "ai_assistant"
}

// BaseURL returns the effective service URL.
func (r *runtimeEnv) BaseURL() string {
	if r.flags.BaseURL != "" {
		return r.flags.BaseURL
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg.BaseURL != "" {
		return r.cfg.BaseURL
	}
	return defaultBaseURL
}

func (r *runtimeEnv) Close() {
	if r.watcher != nil {
		if err := r.watcher.Stop(); err != nil {
			log.Printf("failed to stop config watcher: %v", err)
		}
	}
	if r.Archive != nil {
		if err := r.Archive.Close(); err != nil {
			log.Printf("failed to close archive: %v", err)
		}
	}
}

func prepareRuntimeEnv(ctx context.Context, opts envOptions) (*runtimeEnv, error) {
	env := &runtimeEnv{flags: opts}

	// Load user configuration. A broken config is not fatal, flags and
	// defaults still work without it.
	cfgManager, err := config.NewManager()
	if err != nil {
		log.Printf("failed to initialize config manager: %v", err)
		env.cfg = &config.Config{}
	} else {
		cfg, err := cfgManager.Load()
		if err != nil {
			log.Printf("failed to load user config: %v", err)
			cfg = &config.Config{}
		} else if cfgManager.Exists() {
			log.Printf("user config loaded from: %s", cfgManager.GetConfigPath())
		}
		env.cfg = cfg
	}

	// Environment variables fill in anything flags and config left unset.
	if env.flags.BaseURL == "" {
		env.flags.BaseURL = os.Getenv("DEEPTHINK_BASE_URL")
	}
	if env.flags.Role == "" {
		env.flags.Role = os.Getenv("DEEPTHINK_ROLE")
	}

	client := transport.New(env.BaseURL())
	env.Manager = thinking.NewManager(client)

	ttl := questions.DefaultTTL
	if env.cfg.QuestionTTLSeconds > 0 {
		ttl = time.Duration(env.cfg.QuestionTTLSeconds) * time.Second
	}
	env.Questions = questions.NewService(client, ttl)

	if !opts.NoArchive {
		store, err := openArchive(ctx, opts.DataDir)
		if err != nil {
			log.Printf("failed to open archive: %v (continuing without it)", err)
		} else {
			env.Archive = store
		}
	}

	// Watch the config file so edits take effect without a restart. New
	// sessions pick up role and page context changes; the base URL needs
	// a restart since the transport client is already built.
	if cfgManager != nil && cfgManager.Exists() {
		watcher, err := config.NewWatcher(cfgManager)
		if err != nil {
			log.Printf("failed to create config watcher: %v", err)
		} else {
			watcher.OnReload(func(cfg *config.Config) {
				env.mu.Lock()
				env.cfg = cfg
				env.mu.Unlock()
				log.Println("configuration reloaded")
			})
			if err := watcher.Start(); err != nil {
				log.Printf("failed to start config watcher: %v", err)
			} else {
				env.watcher = watcher
			}
		}
	}

	return env, nil
}

// openArchive opens the session archive under dataDir, defaulting to the
// deepthink user config directory.
func openArchive(ctx context.Context, dataDir string) (*archive.Store, error) {
	if dataDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user config dir: %w", err)
		}
		dataDir = filepath.Join(configDir, "deepthink")
	}
	return archive.Open(ctx, dataDir)
}
