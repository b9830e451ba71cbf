// Package config はサーバーとクライアントの設定を読み込みます。
//
// 優先順位は 既定値 < 設定ファイル (TOML) < 環境変数 (.env を含む) < コマンドラインフラグ です。
package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定です。
type Config struct {
	Server   Server   `toml:"server"`
	Database Database `toml:"database"`
	Log      Log      `toml:"log"`
	Client   Client   `toml:"client"`
}

// Server はHTTPサーバーの設定です。
// TrustedProxies が空の場合は X-Forwarded-For を信用せず、接続元アドレスをクライアントIPとします。
type Server struct {
	Port            int      `toml:"port"`
	Mode            string   `toml:"mode"`
	CORSOrigins     []string `toml:"cors_origins"`
	TrustedProxies  []string `toml:"trusted_proxies"`
	RateLimitMax    int      `toml:"rate_limit_max"`
	RateLimitWindow Duration `toml:"rate_limit_window"`
	BodyLimit       int64    `toml:"body_limit_bytes"`
	MetricsEnabled  bool     `toml:"metrics_enabled"`
	AutoMigrate     bool     `toml:"auto_migrate"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Database はDB接続の設定です。URL が空の場合は個別の項目からDSNを組み立てます。
type Database struct {
	Driver          string   `toml:"driver"`
	URL             string   `toml:"url"`
	User            string   `toml:"user"`
	Password        string   `toml:"password"`
	Host            string   `toml:"host"`
	Port            string   `toml:"port"`
	Name            string   `toml:"name"`
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Client は todoctl などAPIクライアントの設定です。
type Client struct {
	APIURL  string   `toml:"api_url"`
	Timeout Duration `toml:"timeout"`
}

// Duration は "15m" のような文字列で書ける time.Duration です。
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default は既定値の設定を返します。
func Default() *Config {
	return &Config{
		Server: Server{
			Port:            3001,
			Mode:            "release",
			CORSOrigins:     []string{"http://localhost:3000"},
			RateLimitMax:    100,
			RateLimitWindow: Duration{15 * time.Minute},
			BodyLimit:       10 << 20,
			MetricsEnabled:  true,
			AutoMigrate:     true,
			ShutdownTimeout: Duration{10 * time.Second},
		},
		Database: Database{
			Driver:          "mysql",
			Host:            "127.0.0.1",
			Port:            "3306",
			Name:            "todos",
			MaxOpenConns:    25,
			MaxIdleConns:    25,
			ConnMaxLifetime: Duration{5 * time.Minute},
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Client: Client{
			APIURL:  "http://localhost:3001/api",
			Timeout: Duration{10 * time.Second},
		},
	}
}

// DriverAliases はドライバ名の別名と database/sql のドライバ名の対応です。
var DriverAliases = map[string]string{
	"mysql":      "mysql",
	"pgx":        "pgx",
	"postgres":   "pgx",
	"postgresql": "pgx",
	"sqlite3":    "sqlite3",
	"sqlite":     "sqlite3",
}

// DriverName は別名を解決したドライバ名を返します。
func DriverName(driver string) (string, bool) {
	name, ok := DriverAliases[strings.ToLower(strings.TrimSpace(driver))]
	return name, ok
}

// Validate は設定値の範囲を検証します。
func (c *Config) Validate() error {
	var errs []error

	if _, ok := DriverName(c.Database.Driver); !ok {
		errs = append(errs, fmt.Errorf("database driver %q is not supported (use mysql, pgx, postgres, sqlite3)", c.Database.Driver))
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port %d is out of range", c.Server.Port))
	}
	for _, p := range c.Server.TrustedProxies {
		if net.ParseIP(p) == nil {
			if _, _, err := net.ParseCIDR(p); err != nil {
				errs = append(errs, fmt.Errorf("trusted proxy %q is not an IP or CIDR", p))
			}
		}
	}
	if c.Server.RateLimitMax <= 0 {
		errs = append(errs, errors.New("rate limit max must be positive"))
	}
	if c.Server.RateLimitWindow.Duration <= 0 {
		errs = append(errs, errors.New("rate limit window must be positive"))
	}
	if c.Server.BodyLimit <= 0 {
		errs = append(errs, errors.New("body limit must be positive"))
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		errs = append(errs, fmt.Errorf("gin mode %q is invalid", c.Server.Mode))
	}
	if c.Client.Timeout.Duration <= 0 {
		errs = append(errs, errors.New("client timeout must be positive"))
	}
	return errors.Join(errs...)
}

// Addr は http.Server 用のリッスンアドレスを返します。
func (s Server) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
