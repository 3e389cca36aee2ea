package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable configuration guidelines:
// - required: Values that differ between environments (port, DB connection, etc.), security settings
// - default: Values common across all environments (poll intervals, retry limits, etc.)
// Feature settings are typed here once; handlers never parse settings blobs ad hoc.
// -----------------------------------------------------------------------------

type Config struct {
	Server        ServerConfig
	DB            DBConfig
	CORS          CORSConfig
	Log           LogConfig
	Queue         QueueConfig
	Webhook       WebhookConfig
	Token         TokenConfig
	MissedCall    MissedCallConfig
	ReviewRequest ReviewRequestConfig
	AIReply       AIReplyConfig
}

type ServerConfig struct {
	Port string `envconfig:"PORT" required:"true"`
}

type DBConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" required:"true"`
	Password string `envconfig:"DB_PASSWORD" required:"true"`
	DBName   string `envconfig:"DB_NAME" required:"true"`
	SSLMode  string `envconfig:"DB_SSL_MODE" default:"disable"`
}

type CORSConfig struct {
	AllowOrigins     []string      `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:8080"`
	AllowMethods     []string      `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,PATCH,DELETE,OPTIONS"`
	AllowHeaders     []string      `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Signature"`
	ExposeHeaders    []string      `envconfig:"CORS_EXPOSE_HEADERS" default:"Content-Length"`
	AllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"true"`
	MaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"12h"`
}

type LogConfig struct {
	Level      string `envconfig:"LOG_LEVEL" default:"info"`
	TimeFormat string `envconfig:"LOG_TIME_FORMAT" default:"2006-01-02 15:04:05.000"`
}

// QueueConfig tunes the job dispatch loop. Backoff shape is a knob, not a
// correctness requirement; handlers must tolerate any retry spacing.
type QueueConfig struct {
	Workers        int           `envconfig:"QUEUE_WORKERS" default:"4"`
	PollInterval   time.Duration `envconfig:"QUEUE_POLL_INTERVAL" default:"1s"`
	MaxAttempts    int32         `envconfig:"QUEUE_MAX_ATTEMPTS" default:"5"`
	BackoffBase    time.Duration `envconfig:"QUEUE_BACKOFF_BASE" default:"30s"`
	BackoffMax     time.Duration `envconfig:"QUEUE_BACKOFF_MAX" default:"30m"`
	HandlerTimeout time.Duration `envconfig:"QUEUE_HANDLER_TIMEOUT" default:"60s"`
}

type WebhookConfig struct {
	TelephonySecret string `envconfig:"WEBHOOK_TELEPHONY_SECRET" required:"true"`
	BillingSecret   string `envconfig:"WEBHOOK_BILLING_SECRET" required:"true"`
}

type TokenConfig struct {
	BaseURL       string        `envconfig:"TOKEN_BASE_URL" default:"http://localhost:8080"`
	RescheduleTTL time.Duration `envconfig:"TOKEN_RESCHEDULE_TTL" default:"72h"`
	ShareTTL      time.Duration `envconfig:"TOKEN_SHARE_TTL" default:"168h"`
	ShareMaxViews int32         `envconfig:"TOKEN_SHARE_MAX_VIEWS" default:"5"`
}

// MissedCallConfig drives the text-back workflow. QuietHours bounds are local
// wall-clock "HH:MM"; a send that would land inside the window is deferred to
// the window end.
type MissedCallConfig struct {
	Enabled         bool          `envconfig:"MISSED_CALL_ENABLED" default:"true"`
	Delay           time.Duration `envconfig:"MISSED_CALL_DELAY" default:"30s"`
	QuietHoursStart string        `envconfig:"MISSED_CALL_QUIET_START" default:"21:00"`
	QuietHoursEnd   string        `envconfig:"MISSED_CALL_QUIET_END" default:"08:00"`
	Timezone        string        `envconfig:"MISSED_CALL_TIMEZONE" default:"America/Chicago"`
}

type ReviewRequestConfig struct {
	Enabled bool          `envconfig:"REVIEW_REQUEST_ENABLED" default:"true"`
	Delay   time.Duration `envconfig:"REVIEW_REQUEST_DELAY" default:"24h"`
}

type AIReplyConfig struct {
	Enabled  bool          `envconfig:"AI_REPLY_ENABLED" default:"true"`
	Debounce time.Duration `envconfig:"AI_REPLY_DEBOUNCE" default:"2m"`
}

func (c *DBConfig) BuildDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to process env config: %w", err)
	}
	return cfg, nil
}

func NewTestConfig() Config {
	return Config{
		Server: ServerConfig{
			Port: "8889", // Test port
		},
		DB: DBConfig{
			Host:     "localhost",
			Port:     "15433", // Test DB port
			User:     "test",
			Password: "test",
			DBName:   "test_db",
			SSLMode:  "disable",
		},
		Log: LogConfig{
			Level:      "error", // Error level only for tests
			TimeFormat: "2006-01-02 15:04:05.000",
		},
		Queue: QueueConfig{
			Workers:        2,
			PollInterval:   50 * time.Millisecond,
			MaxAttempts:    3,
			BackoffBase:    10 * time.Millisecond,
			BackoffMax:     100 * time.Millisecond,
			HandlerTimeout: 5 * time.Second,
		},
		Webhook: WebhookConfig{
			TelephonySecret: "test-telephony-secret",
			BillingSecret:   "test-billing-secret",
		},
		Token: TokenConfig{
			BaseURL:       "http://localhost:8889",
			RescheduleTTL: 72 * time.Hour,
			ShareTTL:      168 * time.Hour,
			ShareMaxViews: 5,
		},
		MissedCall: MissedCallConfig{
			Enabled:         true,
			Delay:           30 * time.Second,
			QuietHoursStart: "21:00",
			QuietHoursEnd:   "08:00",
			Timezone:        "UTC",
		},
		ReviewRequest: ReviewRequestConfig{
			Enabled: true,
			Delay:   24 * time.Hour,
		},
		AIReply: AIReplyConfig{
			Enabled:  true,
			Debounce: 2 * time.Minute,
		},
	}
}
