// Command server runs the codestash HTTP API.
//
// Configuration comes from the environment (a .env file is loaded if
// present):
//
//	PORT                  listen port (default 8080)
//	DB_PATH               SQLite database file (default data/codestash.db)
//	SESSION_SECRET        HMAC key for session tokens, required, >= 16 chars
//	LOG_LEVEL             debug | info | warn | error (default info)
//	GITHUB_CLIENT_ID      GitHub OAuth app credentials; login via GitHub
//	GITHUB_CLIENT_SECRET  is disabled when the client ID is unset
//	GITHUB_CALLBACK_URL   OAuth callback (default derived from PORT)
//	SECURE_COOKIES        "true" to mark session cookies Secure
//	DOCKER_DISABLED       "true" to skip the Docker sandbox entirely
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mlatour/codestash/internal/executor"
	"github.com/mlatour/codestash/internal/executor/docker"
	"github.com/mlatour/codestash/internal/server"
)

func main() {
	// Missing .env is fine; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(os.Getenv("LOG_LEVEL")),
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/codestash.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", filepath.Dir(dbPath)),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Error("SESSION_SECRET is required; generate one with: openssl rand -hex 32")
		os.Exit(1)
	}

	callbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/api/auth/github/callback", port)
	}

	// The Docker sandbox is optional: without it the server still
	// runs, and POST /api/snippets/{id}/run answers 503.
	var runner executor.Runner
	if strings.EqualFold(os.Getenv("DOCKER_DISABLED"), "true") {
		logger.Info("Docker sandbox disabled by configuration")
	} else {
		dockerRunner, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("Docker sandbox unavailable, snippet execution disabled",
				slog.String("error", err.Error()),
			)
		} else {
			defer dockerRunner.Close()
			runner = dockerRunner
		}
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		SessionSecret:      sessionSecret,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  callbackURL,
		SecureCookies:      strings.EqualFold(os.Getenv("SECURE_COOKIES"), "true"),
	}

	srv, err := server.New(cfg, runner, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func logLevel(value string) slog.Level {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
