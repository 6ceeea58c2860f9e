package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	PubSub       PubSubConfig
	OpenAI       OpenAIConfig
	Pricing      PricingConfig
	Uploads      UploadsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SERENADE_APP_ENV" required:"true"`
	Port         string `envconfig:"SERENADE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SERENADE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SERENADE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SERENADE_DB_DSN"`
	Driver string `envconfig:"SERENADE_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SERENADE_DB_HOST"`
	Port     int    `envconfig:"SERENADE_DB_PORT" default:"5432"`
	User     string `envconfig:"SERENADE_DB_USER"`
	Password string `envconfig:"SERENADE_DB_PASSWORD"`
	Name     string `envconfig:"SERENADE_DB_NAME"`
	SSLMode  string `envconfig:"SERENADE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SERENADE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SERENADE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SERENADE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SERENADE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SERENADE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SERENADE_REDIS_ADDR"`
	Password     string        `envconfig:"SERENADE_REDIS_PASSWORD"`
	DB           int           `envconfig:"SERENADE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SERENADE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SERENADE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SERENADE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SERENADE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SERENADE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SERENADE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SERENADE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SERENADE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SERENADE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SERENADE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SERENADE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SERENADE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SERENADE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SERENADE_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SERENADE_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SERENADE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SERENADE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SERENADE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	AudioBucket       string        `envconfig:"SERENADE_GCS_AUDIO_BUCKET" required:"true"`
	CoverBucket       string        `envconfig:"SERENADE_GCS_COVER_BUCKET" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"SERENADE_GCS_UPLOAD_URL_EXPIRY" default:"15m"`
	DownloadURLExpiry time.Duration `envconfig:"SERENADE_GCS_DOWNLOAD_URL_EXPIRY" default:"1h"`
}

type PubSubConfig struct {
	ChangesTopic        string `envconfig:"SERENADE_PUBSUB_CHANGES_TOPIC" default:"serenade-table-changes"`
	CleanupTopic        string `envconfig:"SERENADE_PUBSUB_CLEANUP_TOPIC" default:"serenade-asset-cleanup"`
	CleanupSubscription string `envconfig:"SERENADE_PUBSUB_CLEANUP_SUBSCRIPTION"`
}

type OpenAIConfig struct {
	APIKey  string        `envconfig:"SERENADE_OPENAI_API_KEY"`
	BaseURL string        `envconfig:"SERENADE_OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	Model   string        `envconfig:"SERENADE_OPENAI_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"SERENADE_OPENAI_TIMEOUT" default:"60s"`
}

// PricingConfig carries the catalog prices as decimal strings so money never
// rides through floats.
type PricingConfig struct {
	BasePrice        string `envconfig:"SERENADE_PRICE_BASE" default:"29.99"`
	CoverImagePrice  string `envconfig:"SERENADE_PRICE_COVER_IMAGE" default:"5.00"`
	SecondSongPrice  string `envconfig:"SERENADE_PRICE_SECOND_SONG" default:"15.00"`
	SecondCoverPrice string `envconfig:"SERENADE_PRICE_SECOND_COVER" default:"5.00"`
}

type UploadsConfig struct {
	MaxAudioMB int `envconfig:"SERENADE_MAX_AUDIO_UPLOAD_MB" default:"50"`
	MaxCoverMB int `envconfig:"SERENADE_MAX_COVER_UPLOAD_MB" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range fallbackDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
