package config

import (
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

type Config struct {
	Addr        string
	DBUrl       string
	TokenSecret string
	TokenTTL    time.Duration
	RefreshTTL  time.Duration
	SubmitRate  int // per minute and client IP
	SubmitBurst int
	TrustProxy  bool // take client IPs from X-Forwarded-For / X-Real-IP
	Debug       bool
}

// Load reads an optional .env file into the environment, then parses args.
// Variables already set in the environment take precedence over the file.
func Load(args []string) (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "load .env")
	}
	return ParseFlags(args)
}

// ParseFlags reads settings from args, falling back to environment
// variables and then to defaults.
func ParseFlags(args []string) (cfg Config, err error) {
	fs := flag.NewFlagSet("opinio", flag.ContinueOnError)

	var host string
	fs.StringVar(&host, "host", "", "listen host name (default 0.0.0.0, env HOST)")
	var port uint
	fs.UintVar(&port, "port", 0, "listen port number (default 8080, env PORT)")
	fs.StringVar(&cfg.DBUrl, "db-url", "", "path to SQLite3 DB file (default opinio.sqlite, env DB_URL)")
	fs.StringVar(&cfg.TokenSecret, "token-secret", "", "secret key for token encryption and decryption (env TOKEN_SECRET)")
	var ttl uint
	fs.UintVar(&ttl, "token-ttl", 0, "token TTL in seconds (default 3600, env TOKEN_TTL)")
	var refreshTTL uint
	fs.UintVar(&refreshTTL, "refresh-ttl", 0, "refresh token TTL in seconds (default 30 days, env REFRESH_TTL)")
	var rate uint
	fs.UintVar(&rate, "submit-rate", 0, "public submissions per minute and IP (default 30, env SUBMIT_RATE)")
	fs.IntVar(&cfg.SubmitBurst, "submit-burst", 10, "burst of public submissions per IP")
	fs.BoolVar(&cfg.TrustProxy, "trust-proxy", false, "read client IPs from proxy headers, only behind a reverse proxy (env TRUST_PROXY)")
	fs.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level (env DEBUG)")

	if err = fs.Parse(args); err != nil {
		return Config{}, err
	}

	host = orEnv(host, "HOST", "0.0.0.0")
	cfg.DBUrl = orEnv(cfg.DBUrl, "DB_URL", "opinio.sqlite")
	cfg.TokenSecret = orEnv(cfg.TokenSecret, "TOKEN_SECRET", "")
	if !cfg.Debug {
		cfg.Debug, _ = strconv.ParseBool(os.Getenv("DEBUG"))
	}
	if !cfg.TrustProxy {
		cfg.TrustProxy, _ = strconv.ParseBool(os.Getenv("TRUST_PROXY"))
	}

	if port, err = uintOrEnv(port, "PORT", 8080); err != nil {
		return Config{}, err
	}
	if ttl, err = uintOrEnv(ttl, "TOKEN_TTL", 3600); err != nil {
		return Config{}, err
	}
	if refreshTTL, err = uintOrEnv(refreshTTL, "REFRESH_TTL", 30*24*3600); err != nil {
		return Config{}, err
	}
	if rate, err = uintOrEnv(rate, "SUBMIT_RATE", 30); err != nil {
		return Config{}, err
	}
	cfg.SubmitRate = int(rate)

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.RefreshTTL = time.Duration(refreshTTL) * time.Second

	if cfg.TokenSecret == "" {
		return Config{}, errors.New("missing parameter -token-secret (or TOKEN_SECRET)")
	}
	if cfg.SubmitBurst < 1 {
		return Config{}, errors.New("-submit-burst must be at least 1")
	}

	return cfg, nil
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func orEnv(value, key, fallback string) string {
	if value != "" {
		return value
	}
	if env := os.Getenv(key); env != "" {
		return env
	}
	return fallback
}

func uintOrEnv(value uint, key string, fallback uint) (uint, error) {
	if value != 0 {
		return value, nil
	}
	env := os.Getenv(key)
	if env == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(env, 10, 32)
	if err != nil {
		return 0, errors.Errorf("invalid %s env variable", key)
	}
	return uint(n), nil
}
