package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// stockfishCandidates are probed in order when STOCKFISH_PATH is unset.
var stockfishCandidates = []string{
	"/usr/games/stockfish",
	"/usr/bin/stockfish",
	"/usr/local/bin/stockfish",
}

type AppConfig struct {
	Host string
	Port int

	StockfishPath         string
	EngineDepth           int
	EngineSkillLevel      int
	EngineThreads         int
	EngineHashMB          int
	EngineMinThinkingMs   int
	EngineMoveTimeMs      int
	EngineWatchdogGraceMs int

	MessagesDir string

	PublicURL        string
	TelegramBotToken string
	TelegramChatID   string

	LogLevel    string
	LogFormat   string
	LogToStdout bool
	LogToFile   bool
	LogFile     string
	LogCaller   bool
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Host:                  "0.0.0.0",
		Port:                  5000,
		EngineDepth:           20,
		EngineSkillLevel:      20,
		EngineThreads:         4,
		EngineHashMB:          2048,
		EngineMinThinkingMs:   100,
		EngineMoveTimeMs:      2000,
		EngineWatchdogGraceMs: 3000,
		LogLevel:              "info",
		LogFormat:             "legacy",
		LogToStdout:           true,
	}

	if v := env("HOST"); v != "" {
		cfg.Host = v
	}
	if err := intVar("PORT", &cfg.Port, 1); err != nil {
		return nil, err
	}

	cfg.StockfishPath = env("STOCKFISH_PATH")
	if err := intVar("ENGINE_DEPTH", &cfg.EngineDepth, 1); err != nil {
		return nil, err
	}
	if err := intVar("ENGINE_SKILL_LEVEL", &cfg.EngineSkillLevel, 0); err != nil {
		return nil, err
	}
	if err := intVar("ENGINE_THREADS", &cfg.EngineThreads, 1); err != nil {
		return nil, err
	}
	if err := intVar("ENGINE_HASH_MB", &cfg.EngineHashMB, 1); err != nil {
		return nil, err
	}
	if err := intVar("ENGINE_MIN_THINKING_MS", &cfg.EngineMinThinkingMs, 0); err != nil {
		return nil, err
	}
	if err := intVar("ENGINE_MOVE_TIME_MS", &cfg.EngineMoveTimeMs, 1); err != nil {
		return nil, err
	}
	if err := intVar("ENGINE_WATCHDOG_GRACE_MS", &cfg.EngineWatchdogGraceMs, 0); err != nil {
		return nil, err
	}

	cfg.MessagesDir = env("MESSAGES_DIR")
	cfg.PublicURL = strings.TrimRight(env("PUBLIC_URL"), "/")
	cfg.TelegramBotToken = env("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = env("TELEGRAM_CHAT_ID")

	if v := env("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	cfg.LogFile = env("LOG_FILE")
	boolVar("LOG_TO_CONSOLE", &cfg.LogToStdout)
	boolVar("LOG_TO_FILE", &cfg.LogToFile)
	boolVar("LOG_CALLER", &cfg.LogCaller)

	if cfg.EngineSkillLevel > 20 {
		return nil, fmt.Errorf("ENGINE_SKILL_LEVEL must be between 0 and 20, got %d", cfg.EngineSkillLevel)
	}
	if cfg.Port > 65535 {
		return nil, fmt.Errorf("PORT out of range: %d", cfg.Port)
	}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID == "" {
		return nil, errors.New("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}
	return cfg, nil
}

// Addr is the listen address.
func (c *AppConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c *AppConfig) MoveTime() time.Duration {
	return time.Duration(c.EngineMoveTimeMs) * time.Millisecond
}

func (c *AppConfig) WatchdogGrace() time.Duration {
	return time.Duration(c.EngineWatchdogGraceMs) * time.Millisecond
}

// ResolveStockfish returns the configured engine path, or the first
// candidate that exists, or the one found on PATH.
func (c *AppConfig) ResolveStockfish() (string, error) {
	if c.StockfishPath != "" {
		if _, err := os.Stat(c.StockfishPath); err != nil {
			return "", fmt.Errorf("stockfish not found at STOCKFISH_PATH %s: %w", c.StockfishPath, err)
		}
		return c.StockfishPath, nil
	}
	for _, p := range stockfishCandidates {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p, nil
		}
	}
	if p, err := exec.LookPath("stockfish"); err == nil {
		return p, nil
	}
	return "", errors.New("stockfish not found; install it or set STOCKFISH_PATH")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intVar(key string, dst *int, min int) error {
	v := env(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if n < min {
		return fmt.Errorf("%s must be >= %d, got %d", key, min, n)
	}
	*dst = n
	return nil
}

func boolVar(key string, dst *bool) {
	if v := env(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
