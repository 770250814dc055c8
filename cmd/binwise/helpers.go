package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/Veraticus/binwise/internal/cloudstore"
	"github.com/Veraticus/binwise/internal/common"
	"github.com/Veraticus/binwise/internal/config"
	"github.com/Veraticus/binwise/internal/engine"
	"github.com/Veraticus/binwise/internal/llm"
	"github.com/Veraticus/binwise/internal/scoring"
	"github.com/Veraticus/binwise/internal/service"
	"github.com/Veraticus/binwise/internal/storage"
)

// Replaced in tests.
var (
	openStorage   = initStorage
	newClassifier = createClassifier
)

// initStorage opens the configured backend and runs its migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	var (
		store service.Storage
		err   error
	)

	backend := strings.ToLower(viper.GetString("storage.backend"))
	switch backend {
	case "", "sqlite":
		dbPath := viper.GetString("database.path")
		if dbPath == "" {
			dbPath = config.DefaultDatabasePath()
		}
		store, err = storage.NewSQLiteStorage(config.ExpandPath(dbPath))
	case "firestore":
		store, err = cloudstore.NewFirestoreStorage(ctx, cloudstore.Config{
			ProjectID:       viper.GetString("firestore.project_id"),
			CredentialsFile: config.ExpandPath(viper.GetString("firestore.credentials_file")),
			DatabaseID:      viper.GetString("firestore.database_id"),
		})
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", common.ErrInvalidConfig, backend)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		if closeErr := store.Close(); closeErr != nil {
			common.LogError(closeErr, "Failed to close storage", common.Fields{"backend": backend})
		}
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// createClassifier creates the vision classifier from the llm.* keys.
func createClassifier(ctx context.Context) (engine.Classifier, error) {
	cfg := llm.Config{
		Provider:        viper.GetString("llm.provider"),
		Model:           viper.GetString("llm.model"),
		APIKey:          viper.GetString("llm.api_key"),
		BaseURL:         viper.GetString("llm.base_url"),
		ProjectID:       viper.GetString("llm.project_id"),
		Location:        viper.GetString("llm.location"),
		CredentialsFile: config.ExpandPath(viper.GetString("llm.credentials_file")),
		Language:        viper.GetString("llm.language"),
		MaxRetries:      viper.GetInt("llm.max_retries"),
		RetryDelay:      viper.GetDuration("llm.retry_delay"),
		CacheTTL:        viper.GetDuration("llm.cache_ttl"),
		Timeout:         viper.GetDuration("llm.timeout"),
		RateLimit:       viper.GetInt("llm.rate_limit"),
		Temperature:     viper.GetFloat64("llm.temperature"),
		MaxTokens:       viper.GetInt("llm.max_tokens"),
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}

	classifier, err := llm.NewClassifier(ctx, cfg, slog.Default())
	if err != nil {
		return nil, common.NewUserError("Could not set up the image classifier. Set llm.api_key or GEMINI_API_KEY.", err)
	}
	return classifier, nil
}

// loadPolicy builds the scoring policy from scoring.preset and any
// explicit overrides.
func loadPolicy() (scoring.Policy, error) {
	policy, err := scoring.PolicyByName(viper.GetString("scoring.preset"))
	if err != nil {
		return scoring.Policy{}, err
	}

	if f := viper.GetString("scoring.formula"); f != "" {
		policy.Formula = scoring.Formula(f)
	}
	if viper.IsSet("scoring.points_per_kg") {
		policy.PointsPerKg = viper.GetFloat64("scoring.points_per_kg")
	}
	if viper.IsSet("scoring.participation_bonus") {
		policy.ParticipationBonus = viper.GetInt("scoring.participation_bonus")
	}
	if viper.IsSet("scoring.thresholds.silver") {
		policy.Thresholds.Silver = viper.GetInt("scoring.thresholds.silver")
	}
	if viper.IsSet("scoring.thresholds.gold") {
		policy.Thresholds.Gold = viper.GetInt("scoring.thresholds.gold")
	}
	if viper.IsSet("scoring.thresholds.platinum") {
		policy.Thresholds.Platinum = viper.GetInt("scoring.thresholds.platinum")
	}

	if err := policy.Validate(); err != nil {
		return scoring.Policy{}, err
	}
	return policy, nil
}

// newEngine wires storage, classifier, policy and the offline profile cache.
// classifier may be nil for commands that never classify.
func newEngine(store service.Storage, classifier engine.Classifier) (*engine.Engine, error) {
	policy, err := loadPolicy()
	if err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}

	cfg := engine.DefaultConfig()
	cfg.Policy = policy
	cfg.Logger = slog.Default()

	cacheDir := viper.GetString("cache.dir")
	if cacheDir == "" {
		cacheDir = config.DefaultCacheDir()
	}
	cache, err := storage.NewProfileCache(config.ExpandPath(cacheDir))
	if err != nil {
		slog.Warn("Profile cache disabled", "dir", cacheDir, "error", err)
	} else {
		cfg.Profiles = storage.NewFallbackProfileReader(store, cache, slog.Default())
	}

	return engine.NewWithConfig(store, classifier, cfg), nil
}

// withEngine opens storage (and the classifier when needed) and runs fn.
func withEngine(ctx context.Context, needClassifier bool, fn func(*engine.Engine, service.Storage) error) error {
	store, err := openStorage(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	var classifier engine.Classifier
	if needClassifier {
		classifier, err = newClassifier(ctx)
		if err != nil {
			return err
		}
		if closer, ok := classifier.(interface{ Close() error }); ok {
			defer func() { _ = closer.Close() }()
		}
	}

	eng, err := newEngine(store, classifier)
	if err != nil {
		return err
	}
	return fn(eng, store)
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return common.NewUserError("--user is required (or set BINWISE_USER).", fmt.Errorf("%w: user id", common.ErrMissingConfig))
	}
	return nil
}

// userFlag returns the --user flag, falling back to the user key.
func userFlag(value string) string {
	if value != "" {
		return value
	}
	return viper.GetString("user")
}
