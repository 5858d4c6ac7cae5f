package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dropDatabas3/simguard/internal/members"
	"github.com/dropDatabas3/simguard/internal/security/secretbox"
	"github.com/dropDatabas3/simguard/internal/simswap"
)

// envPrefix antecede a todas las variables de entorno (SIMGUARD_SERVER_ADDR, ...).
const envPrefix = "SIMGUARD_"

// Límites del timeout del oracle: una consulta nunca puede colgar al caller.
const (
	MinOracleTimeout = 3 * time.Second
	MaxOracleTimeout = 5 * time.Second
)

type Limit struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

type Config struct {
	App struct {
		// dev | staging | prod
		Env     string `yaml:"env"`
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Server struct {
		Addr               string        `yaml:"addr"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
		ReadTimeout        time.Duration `yaml:"read_timeout"`
		WriteTimeout       time.Duration `yaml:"write_timeout"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
		// TrustProxy: usar X-Forwarded-For para la IP del cliente.
		TrustProxy bool `yaml:"trust_proxy"`
	} `yaml:"server"`

	Storage struct {
		// memory | postgres
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
		// ContactKey (32 bytes, base64/hex) cifra email y teléfono alternativo en postgres.
		ContactKey string `yaml:"contact_key"`
		Postgres   struct {
			MaxConns        int32         `yaml:"max_conns"`
			MinConns        int32         `yaml:"min_conns"`
			ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
			AutoMigrate     bool          `yaml:"auto_migrate"`
		} `yaml:"postgres"`
	} `yaml:"storage"`

	Cache struct {
		// memory | redis
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Oracle struct {
		// static | http | twilio
		Provider  string        `yaml:"provider"`
		Timeout   time.Duration `yaml:"timeout"`
		BatchSize int           `yaml:"batch_size"`
		HTTP      struct {
			BaseURL  string `yaml:"base_url"`
			APIKey   string `yaml:"api_key"`
			Username string `yaml:"username"`
			SenderID string `yaml:"sender_id"`
		} `yaml:"http"`
		Twilio struct {
			AccountSID string `yaml:"account_sid"`
			AuthToken  string `yaml:"auth_token"`
			FromPhone  string `yaml:"from_phone"`
		} `yaml:"twilio"`
		Static struct {
			Entries []simswap.StaticEntry `yaml:"entries"`
		} `yaml:"static"`
	} `yaml:"oracle"`

	Gate struct {
		FailClosedAboveAmount float64 `yaml:"fail_closed_above_amount"`
		DefaultMethod         string  `yaml:"default_method"`
	} `yaml:"gate"`

	Challenge struct {
		// memory | redis | postgres (default: el de storage)
		Store       string        `yaml:"store"`
		TTL         time.Duration `yaml:"ttl"`
		MaxAttempts int           `yaml:"max_attempts"`
		Retention   time.Duration `yaml:"retention"`
		SweepSpec   string        `yaml:"sweep_spec"`
	} `yaml:"challenge"`

	Notify struct {
		// LogOnly: no se entrega nada, el código queda en el log (solo dev).
		LogOnly bool `yaml:"log_only"`
		Email   struct {
			Enabled            bool   `yaml:"enabled"`
			Host               string `yaml:"host"`
			Port               int    `yaml:"port"`
			Username           string `yaml:"username"`
			Password           string `yaml:"password"`
			From               string `yaml:"from"`
			TLSMode            string `yaml:"tls_mode"`
			InsecureSkipVerify bool   `yaml:"insecure_skip_verify"`
			Subject            string `yaml:"subject"`
		} `yaml:"email"`
		SMS struct {
			Enabled bool   `yaml:"enabled"`
			Sender  string `yaml:"sender"`
		} `yaml:"sms"`
	} `yaml:"notify"`

	Verification struct {
		LinkBaseURL string `yaml:"link_base_url"`
		SigningKey  string `yaml:"signing_key"`
		Issuer      string `yaml:"issuer"`
	} `yaml:"verification"`

	Rate struct {
		Enabled bool  `yaml:"enabled"`
		Check   Limit `yaml:"check"`
		Verify  Limit `yaml:"verify"`
		Payment Limit `yaml:"payment"`
	} `yaml:"rate"`

	Telemetry struct {
		OTLPEndpoint string  `yaml:"otlp_endpoint"`
		Insecure     bool    `yaml:"insecure"`
		SampleRatio  float64 `yaml:"sample_ratio"`
		Metrics      bool    `yaml:"metrics"`
	} `yaml:"telemetry"`

	Log struct {
		Level    string `yaml:"level"`
		Sampling bool   `yaml:"sampling"`
	} `yaml:"log"`

	Members struct {
		Seed []members.SeedMember `yaml:"seed"`
	} `yaml:"members"`
}

// Load lee el YAML (si path no está vacío), aplica defaults y luego env.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	c.applyDefaults()
	c.applyEnvOverrides()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.App.Name == "" {
		c.App.Name = "simguard"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 10 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 20 * time.Second
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Storage.Postgres.MaxConns == 0 {
		c.Storage.Postgres.MaxConns = 10
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Cache.Redis.Prefix == "" {
		c.Cache.Redis.Prefix = "sg:"
	}
	if c.Oracle.Provider == "" {
		c.Oracle.Provider = "static"
	}
	if c.Oracle.Timeout == 0 {
		c.Oracle.Timeout = simswap.DefaultTimeout
	}
	if c.Oracle.BatchSize == 0 {
		c.Oracle.BatchSize = simswap.DefaultBatchSize
	}
	if c.Gate.FailClosedAboveAmount == 0 {
		c.Gate.FailClosedAboveAmount = 1000
	}
	if c.Gate.DefaultMethod == "" {
		c.Gate.DefaultMethod = "email"
	}
	if c.Challenge.TTL == 0 {
		c.Challenge.TTL = 10 * time.Minute
	}
	if c.Challenge.MaxAttempts == 0 {
		c.Challenge.MaxAttempts = 3
	}
	if c.Challenge.Retention == 0 {
		c.Challenge.Retention = 24 * time.Hour
	}
	if c.Challenge.SweepSpec == "" {
		c.Challenge.SweepSpec = "@every 1m"
	}
	if c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
	// rate defaults por endpoint
	if c.Rate.Check.Limit == 0 {
		c.Rate.Check = Limit{Limit: 60, Window: time.Minute}
	}
	if c.Rate.Verify.Limit == 0 {
		c.Rate.Verify = Limit{Limit: 10, Window: time.Minute}
	}
	if c.Rate.Payment.Limit == 0 {
		c.Rate.Payment = Limit{Limit: 30, Window: time.Minute}
	}
	if c.Telemetry.SampleRatio == 0 {
		c.Telemetry.SampleRatio = 1
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(envPrefix + key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvFloat(key string) (float64, bool) {
	if s, ok := getEnvStr(key); ok {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides: pisa el YAML con variables de entorno (secrets, DSNs).
func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("APP_VERSION"); ok {
		c.App.Version = v
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvBool("SERVER_TRUST_PROXY"); ok {
		c.Server.TrustProxy = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = strings.ToLower(v)
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_CONTACT_KEY"); ok {
		c.Storage.ContactKey = v
	}
	if v, ok := getEnvInt("STORAGE_POSTGRES_MAX_CONNS"); ok {
		c.Storage.Postgres.MaxConns = int32(v)
	}
	if v, ok := getEnvBool("STORAGE_POSTGRES_AUTO_MIGRATE"); ok {
		c.Storage.Postgres.AutoMigrate = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = strings.ToLower(v)
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}

	// ORACLE
	if v, ok := getEnvStr("ORACLE_PROVIDER"); ok {
		c.Oracle.Provider = strings.ToLower(v)
	}
	if v, ok := getEnvDur("ORACLE_TIMEOUT"); ok {
		c.Oracle.Timeout = v
	}
	if v, ok := getEnvInt("ORACLE_BATCH_SIZE"); ok {
		c.Oracle.BatchSize = v
	}
	if v, ok := getEnvStr("ORACLE_HTTP_BASE_URL"); ok {
		c.Oracle.HTTP.BaseURL = v
	}
	if v, ok := getEnvStr("ORACLE_HTTP_API_KEY"); ok {
		c.Oracle.HTTP.APIKey = v
	}
	if v, ok := getEnvStr("ORACLE_HTTP_USERNAME"); ok {
		c.Oracle.HTTP.Username = v
	}
	if v, ok := getEnvStr("TWILIO_ACCOUNT_SID"); ok {
		c.Oracle.Twilio.AccountSID = v
	}
	if v, ok := getEnvStr("TWILIO_AUTH_TOKEN"); ok {
		c.Oracle.Twilio.AuthToken = v
	}
	if v, ok := getEnvStr("TWILIO_FROM_PHONE"); ok {
		c.Oracle.Twilio.FromPhone = v
	}

	// GATE
	if v, ok := getEnvFloat("GATE_FAIL_CLOSED_ABOVE_AMOUNT"); ok {
		c.Gate.FailClosedAboveAmount = v
	}
	if v, ok := getEnvStr("GATE_DEFAULT_METHOD"); ok {
		c.Gate.DefaultMethod = v
	}

	// CHALLENGE
	if v, ok := getEnvStr("CHALLENGE_STORE"); ok {
		c.Challenge.Store = strings.ToLower(v)
	}
	if v, ok := getEnvDur("CHALLENGE_RETENTION"); ok {
		c.Challenge.Retention = v
	}

	// NOTIFY
	if v, ok := getEnvBool("NOTIFY_LOG_ONLY"); ok {
		c.Notify.LogOnly = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.Notify.Email.Host = v
		c.Notify.Email.Enabled = true
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.Notify.Email.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.Notify.Email.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.Notify.Email.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.Notify.Email.From = v
	}
	if v, ok := getEnvStr("SMTP_TLS_MODE"); ok {
		c.Notify.Email.TLSMode = v
	}

	// VERIFICATION LINK
	if v, ok := getEnvStr("VERIFICATION_LINK_BASE_URL"); ok {
		c.Verification.LinkBaseURL = v
	}
	if v, ok := getEnvStr("VERIFICATION_SIGNING_KEY"); ok {
		c.Verification.SigningKey = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_VERIFY_LIMIT"); ok {
		c.Rate.Verify.Limit = v
	}
	if v, ok := getEnvInt("RATE_PAYMENT_LIMIT"); ok {
		c.Rate.Payment.Limit = v
	}

	// TELEMETRY / LOG
	if v, ok := getEnvStr("OTLP_ENDPOINT"); ok {
		c.Telemetry.OTLPEndpoint = v
	}
	if v, ok := getEnvBool("OTLP_INSECURE"); ok {
		c.Telemetry.Insecure = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
}

// Validate rechaza configuraciones que el proceso no puede servir.
func (c *Config) Validate() error {
	var errs []error
	if c.Oracle.Timeout < MinOracleTimeout || c.Oracle.Timeout > MaxOracleTimeout {
		errs = append(errs, fmt.Errorf("oracle.timeout must be within [%s, %s], got %s",
			MinOracleTimeout, MaxOracleTimeout, c.Oracle.Timeout))
	}
	switch c.Oracle.Provider {
	case "static":
		if c.IsProd() {
			errs = append(errs, errors.New("oracle.provider static is not allowed in prod"))
		}
	case "http":
		if c.Oracle.HTTP.BaseURL == "" || c.Oracle.HTTP.APIKey == "" {
			errs = append(errs, errors.New("oracle.http requires base_url and api_key"))
		}
	case "twilio":
		if c.Oracle.Twilio.AccountSID == "" || c.Oracle.Twilio.AuthToken == "" {
			errs = append(errs, errors.New("oracle.twilio requires account_sid and auth_token"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown oracle.provider %q", c.Oracle.Provider))
	}

	switch c.Storage.Driver {
	case "memory":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.driver %q", c.Storage.Driver))
	}
	if c.Storage.ContactKey != "" {
		if _, err := secretbox.ParseKey(c.Storage.ContactKey); err != nil {
			errs = append(errs, fmt.Errorf("storage.contact_key: %w", err))
		}
	}
	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("cache.redis.addr is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.kind %q", c.Cache.Kind))
	}
	switch c.ChallengeStore() {
	case "memory", "postgres":
	case "redis":
		if c.Cache.Redis.Addr == "" {
			errs = append(errs, errors.New("challenge.store redis requires cache.redis.addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown challenge.store %q", c.Challenge.Store))
	}
	if c.ChallengeStore() == "postgres" && c.Storage.DSN == "" {
		errs = append(errs, errors.New("challenge.store postgres requires storage.dsn"))
	}

	if c.Challenge.TTL <= 0 || c.Challenge.Retention <= 0 || c.Challenge.MaxAttempts <= 0 {
		errs = append(errs, errors.New("challenge ttl, retention and max_attempts must be positive"))
	}
	if c.Gate.FailClosedAboveAmount < 0 {
		errs = append(errs, errors.New("gate.fail_closed_above_amount must not be negative"))
	}
	switch c.Gate.DefaultMethod {
	case "email", "alternate_phone", "security_questions":
	default:
		errs = append(errs, fmt.Errorf("unknown gate.default_method %q", c.Gate.DefaultMethod))
	}
	if k := c.Verification.SigningKey; k != "" && len(k) < 32 {
		errs = append(errs, errors.New("verification.signing_key must be at least 32 bytes"))
	}
	if c.IsProd() && c.Notify.LogOnly {
		errs = append(errs, errors.New("notify.log_only is not allowed in prod"))
	}
	return errors.Join(errs...)
}

// ChallengeStore resuelve el backend de challenges (default: storage.driver).
func (c *Config) ChallengeStore() string {
	if c.Challenge.Store != "" {
		return c.Challenge.Store
	}
	return c.Storage.Driver
}

func (c *Config) IsProd() bool { return c.App.Env == "prod" }
