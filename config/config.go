package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// ScoringConfig holds every weight used by the interaction ledger and the
// compatibility scorer.
type ScoringConfig struct {
	// Score delta applied to a match on a like or invite
	LikeScore float64 `env:"SCORE_LIKE" envDefault:"10" yaml:"like_score"`

	// Score delta applied to a match on a pass
	PassScore float64 `env:"SCORE_PASS" envDefault:"-20" yaml:"pass_score"`

	Base              float64 `env:"SCORE_BASE" envDefault:"50" yaml:"base"`
	Dealbreaker       float64 `env:"SCORE_DEALBREAKER" envDefault:"-100" yaml:"dealbreaker"`
	TenantTypeMatch   float64 `env:"SCORE_TENANT_TYPE_MATCH" envDefault:"20" yaml:"tenant_type_match"`
	TenantTypeMiss    float64 `env:"SCORE_TENANT_TYPE_MISS" envDefault:"-20" yaml:"tenant_type_miss"`
	RoomsEnough       float64 `env:"SCORE_ROOMS_ENOUGH" envDefault:"15" yaml:"rooms_enough"`
	RoomsExact        float64 `env:"SCORE_ROOMS_EXACT" envDefault:"5" yaml:"rooms_exact"`
	RoomsShort        float64 `env:"SCORE_ROOMS_SHORT" envDefault:"-15" yaml:"rooms_short"`
	BathroomPresent   float64 `env:"SCORE_BATHROOM_PRESENT" envDefault:"10" yaml:"bathroom_present"`
	BathroomMissing   float64 `env:"SCORE_BATHROOM_MISSING" envDefault:"-5" yaml:"bathroom_missing"`
	DefaultDesiredMin int     `env:"SCORE_DEFAULT_MIN_ROOMS" envDefault:"1" yaml:"default_min_rooms"`
}

// FeedConfig controls ranking output.
type FeedConfig struct {
	// Candidates whose total score falls below this value are hidden
	VisibilityThreshold float64 `env:"FEED_VISIBILITY_THRESHOLD" envDefault:"0"`

	// The shuffle only runs on feeds longer than this
	ShuffleMinSize int `env:"FEED_SHUFFLE_MIN_SIZE" envDefault:"10"`

	// Seed for the shuffle source, 0 seeds from the clock
	ShuffleSeed int64 `env:"FEED_SHUFFLE_SEED" envDefault:"0"`
}

// GeocodingConfig points the directory import at a Nominatim compatible
// search service.
type GeocodingConfig struct {
	BaseURL      string        `env:"GEOCODER_URL" envDefault:"https://nominatim.openstreetmap.org"`
	CountryCodes string        `env:"GEOCODER_COUNTRY_CODES" envDefault:"ro"`
	UserAgent    string        `env:"GEOCODER_USER_AGENT" envDefault:"Roomify Directory Import/1.0"`
	CacheDir     string        `env:"GEOCODER_CACHE_DIR"`
	Delay        time.Duration `env:"GEOCODER_DELAY" envDefault:"1s"`
}

type Config struct {
	Server struct {
		Port           int      `env:"PORT" envDefault:"5250"`
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
		JWTSecret      string   `env:"JWT_SECRET"`
		PaymentSecret  string   `env:"PAYMENT_WEBHOOK_SECRET"`
	}

	Database struct {
		// sqlite or postgres
		Driver string `env:"DB_DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DB_DSN" envDefault:"database/roomify.db"`

		// Attempts for a match read-modify-write that lost a version race
		MaxRetries int `env:"DB_MAX_RETRIES" envDefault:"3"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	Events struct {
		BufferSize int `env:"EVENT_BUFFER_SIZE" envDefault:"256"`
	}

	Telegram struct {
		Enabled  bool   `env:"TELEGRAM_ENABLED" envDefault:"false"`
		BotToken string `env:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `env:"TELEGRAM_CHAT_ID"`
	}

	Offers struct {
		ExpiryEnabled bool          `env:"OFFER_EXPIRY_ENABLED" envDefault:"false"`
		TTL           time.Duration `env:"OFFER_TTL" envDefault:"168h"`
		SweepInterval time.Duration `env:"OFFER_SWEEP_INTERVAL" envDefault:"10m"`
	}

	Import struct {
		// Rows upserted per transaction
		BatchSize int `env:"IMPORT_BATCH_SIZE" envDefault:"100"`
	}

	Geocoding GeocodingConfig

	Scoring ScoringConfig

	// Optional YAML file overriding any scoring weight
	ScoringFile string `env:"SCORING_FILE"`

	Feed FeedConfig
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if cfg.ScoringFile != "" {
		if err := cfg.loadScoringFile(cfg.ScoringFile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Default returns the configuration with every envDefault applied and no
// environment lookups.
func Default() *Config {
	cfg := &Config{}
	_ = env.Parse(cfg, env.Options{Environment: map[string]string{}})
	return cfg
}

// loadScoringFile overlays weights from a YAML document. Keys absent from
// the file keep their current values.
func (c *Config) loadScoringFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read scoring file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.Scoring); err != nil {
		return fmt.Errorf("failed to parse scoring file: %w", err)
	}
	return nil
}
