// Command fossflow runs the diagram generation server.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"fossflow/pkg/config"
	"fossflow/pkg/generate"
	"fossflow/pkg/icons"
	"fossflow/pkg/llm"
	llmmetrics "fossflow/pkg/llm/middleware/metrics"
	"fossflow/pkg/logx"
	"fossflow/pkg/metrics"
	"fossflow/pkg/persistence"
	"fossflow/pkg/version"
	"fossflow/pkg/webui"
)

// PasswordEnvVar allows passwordless startup when a secrets file exists.
const PasswordEnvVar = "FOSSFLOW_PASSWORD"

func main() {
	var (
		configPath  = flag.String("config", "fossflow.json", "Path to config file")
		addr        = flag.String("addr", "", "Listen address (overrides config)")
		dbPath      = flag.String("db", "", "Path to SQLite database (overrides config)")
		secretsPath = flag.String("secrets", config.SecretsFileName, "Path to encrypted secrets file")
		initSecrets = flag.Bool("init-secrets", false, "Create the encrypted secrets file and exit")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("fossflow %s\n", version.Version)
		fmt.Printf("  commit: %s\n", version.Commit)
		fmt.Printf("  built:  %s\n", version.Date)
		os.Exit(0)
	}

	if *debug {
		logx.SetDebug(true)
	}

	if *initSecrets {
		if err := runInitSecrets(*secretsPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize secrets: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	os.Exit(run(*configPath, *addr, *dbPath, *secretsPath))
}

// run contains the main application logic and returns an exit code.
// This allows defers to execute before os.Exit is called.
func run(configPath, addr, dbPath, secretsPath string) int {
	logger := logx.NewLogger("main")

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if addr != "" {
		cfg.Listen = addr
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	secrets, err := unlockSecrets(secretsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unlock secrets: %v\n", err)
		return 1
	}

	db, err := persistence.InitializeDatabase(cfg.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		return 1
	}
	defer func() { _ = db.Close() }()
	store := persistence.NewStore(db)
	logger.Info("Database initialized: %s", cfg.DBPath)

	client, err := llm.NewClient(llm.ClientConfig{
		Provider: cfg.LLM.Provider,
		Model:    cfg.LLM.Model,
		APIKey:   config.GetAPIKey(secrets, cfg.LLM.Provider),
		BaseURL:  cfg.LLM.BaseURL,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create LLM client: %v\n", err)
		return 1
	}
	instrumented := llmmetrics.Wrap(client, cfg.LLM.Provider, llmmetrics.NewPrometheusRecorder())
	logger.Info("LLM client ready: %s/%s", cfg.LLM.Provider, cfg.LLM.Model)

	extraIcons, err := loadIconPacks(cfg.IconPacks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load icon packs: %v\n", err)
		return 1
	}

	counter, err := generate.NewTokenCounter()
	if err != nil {
		logger.Warn("Tokenizer unavailable, falling back to character estimates: %v", err)
	}
	service := generate.NewService(instrumented, cfg.LLM, store, counter, extraIcons)

	var usage *metrics.QueryService
	if cfg.PrometheusURL != "" {
		usage, err = metrics.NewQueryService(cfg.PrometheusURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create metrics query service: %v\n", err)
			return 1
		}
	}

	mux := http.NewServeMux()
	webui.NewServer(service, store, usage).RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening on http://%s", cfg.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown error: %v", err)
			return 1
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(os.Stderr, "Server failed: %v\n", err)
			return 1
		}
	}
	return 0
}

// loadIconPacks loads all configured custom icon pack files.
func loadIconPacks(paths []string) ([]icons.Icon, error) {
	var extra []icons.Icon
	for _, path := range paths {
		pack, err := icons.LoadPack(path)
		if err != nil {
			return nil, fmt.Errorf("icon pack %s: %w", path, err)
		}
		extra = append(extra, pack.Icons...)
	}
	return extra, nil
}

// unlockSecrets decrypts the secrets file when present. The password comes
// from FOSSFLOW_PASSWORD or an interactive prompt. A missing secrets file
// is fine; API keys then come from the environment.
func unlockSecrets(path string) (config.Secrets, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}

	password := []byte(os.Getenv(PasswordEnvVar))
	if len(password) == 0 {
		fmt.Printf("Enter password for %s: ", path)
		entered, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		password = entered
	}
	defer func() {
		for i := range password {
			password[i] = 0
		}
	}()

	return config.ReadSecretsFile(path, password)
}

// runInitSecrets interactively collects API keys and writes the encrypted
// secrets file.
func runInitSecrets(path string) error {
	password, err := promptForPassword()
	if err != nil {
		return err
	}
	defer func() {
		for i := range password {
			password[i] = 0
		}
	}()

	secrets := config.Secrets{}
	for _, provider := range []string{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderGoogle} {
		fmt.Printf("Enter %s API key (press Enter to skip): ", provider)
		key, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
		if trimmed := strings.TrimSpace(string(key)); trimmed != "" {
			secrets[provider] = trimmed
		}
		for i := range key {
			key[i] = 0
		}
	}

	if err := config.WriteSecretsFile(path, secrets, password); err != nil {
		return err
	}
	fmt.Printf("Credentials saved to %s (file permissions: 0600)\n", path)
	return nil
}

// promptForPassword prompts for a password with confirmation.
func promptForPassword() ([]byte, error) {
	const maxAttempts = 3
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		fmt.Print("Enter a password for the secrets file: ")
		password1, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}

		fmt.Print("Confirm password: ")
		password2, err := term.ReadPassword(syscall.Stdin)
		fmt.Println()
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}

		if bytes.Equal(password1, password2) {
			for i := range password2 {
				password2[i] = 0
			}
			return password1, nil
		}
		if attempt < maxAttempts {
			fmt.Println("Passwords do not match. Please try again.")
		}
	}
	return nil, fmt.Errorf("passwords do not match after %d attempts", maxAttempts)
}
