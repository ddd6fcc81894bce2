package app

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseFile string `env:"INVITED_DATABASE_FILE" envDefault:"invited.db"`
	PepperFile   string `env:"INVITED_PEPPER_FILE"   envDefault:"pepper"`

	// ValidityDays is the invitation validity window in days.
	ValidityDays int `env:"INVITED_VALIDITY_DAYS" envDefault:"7"`
	// PerUserQuota limits invitations per inviter; 0 means unlimited.
	PerUserQuota int `env:"INVITED_PER_USER_QUOTA" envDefault:"0"`

	SessionSecret  string        `env:"INVITED_SESSION_SECRET"`
	SessionTTL     time.Duration `env:"INVITED_SESSION_TTL" envDefault:"24h"`
	Issuer         string        `env:"INVITED_ISSUER"      envDefault:"invited"`
	BootstrapToken string        `env:"INVITED_BOOTSTRAP_TOKEN"`

	SiteName    string `env:"INVITED_SITE_NAME"    envDefault:"invited"`
	BaseURL     string `env:"INVITED_BASE_URL"     envDefault:"http://localhost:8080"`
	FromAddress string `env:"INVITED_FROM_ADDRESS" envDefault:"no-reply@localhost"`

	// SMTPHost empty means invitation emails are logged, not sent.
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	Env       string `env:"ENV"        envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT"       envDefault:"8080"`

	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
	HousekeepingInterval time.Duration `env:"HOUSEKEEPING_INTERVAL" envDefault:"1h"`
}

func LoadConfig() (Config, error) {
	return env.ParseAs[Config]()
}

// Validity returns the configured validity window as a duration.
func (c Config) Validity() time.Duration {
	days := c.ValidityDays
	if days <= 0 {
		days = 7
	}
	return time.Duration(days) * 24 * time.Hour
}
