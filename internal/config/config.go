package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port        int    `envconfig:"PORT" default:"3101"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	Version     string `envconfig:"VERSION" default:"dev"`
	BcryptCost  int    `envconfig:"BCRYPT_COST" default:"10"`

	JWTSecret       string        `envconfig:"JWT_SECRET" default:""`
	JWTStrictSecret bool          `envconfig:"JWT_STRICT_SECRET" default:"false"`
	JWTTTL          time.Duration `envconfig:"JWT_TTL" default:"24h"`

	BootstrapAdminEmail     string `envconfig:"BOOTSTRAP_ADMIN_EMAIL" default:"admin@userix.com"`
	BootstrapAdminPassword  string `envconfig:"BOOTSTRAP_ADMIN_PASSWORD" default:""`
	BootstrapAdminFirstName string `envconfig:"BOOTSTRAP_ADMIN_FIRST_NAME" default:"Admin"`
	BootstrapAdminLastName  string `envconfig:"BOOTSTRAP_ADMIN_LAST_NAME" default:"User"`

	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`
	SeedFile      string `envconfig:"SEED_FILE" default:""`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3102,http://localhost:3000"`
	LoginRatePerMinute int      `envconfig:"LOGIN_RATE_PER_MINUTE" default:"10"`
	LoginBurst         int      `envconfig:"LOGIN_BURST" default:"5"`

	// TrustedProxies lists CIDRs or addresses whose X-Forwarded-For and
	// X-Real-IP headers are honored. Empty means forwarding headers are ignored.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
