// Package database はDB接続とスキーマの管理を行います。
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"

	"todo-manager/backend/internal/config"
)

// Dialect は database/sql のドライバ名であり、SQL方言の違いを表します。
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "pgx"
	SQLite   Dialect = "sqlite3"
)

// ParseDialect はドライバ名を Dialect に変換します。
// 別名は config.DriverAliases と共通です。
func ParseDialect(driver string) (Dialect, error) {
	name, ok := config.DriverName(driver)
	if !ok {
		return "", fmt.Errorf("unsupported database driver %q", driver)
	}
	return Dialect(name), nil
}

// Rebind は ? プレースホルダを方言に合わせて書き換えます (Postgres では $1, $2 ...)。
func (d Dialect) Rebind(query string) string {
	if d != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// GetDSN は設定から接続文字列 (DSN) を構築します。URL が設定されていればそのまま使います。
func GetDSN(cfg config.Database) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	d, err := ParseDialect(cfg.Driver)
	if err != nil {
		d = MySQL
	}
	switch d {
	case Postgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     cfg.Host + ":" + cfg.Port,
			Path:     "/" + cfg.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case SQLite:
		name := cfg.Name
		if name == "" {
			name = "todos.db"
		}
		return "file:" + name + "?_busy_timeout=5000"
	default:
		// clientFoundRows: 値が変わらない UPDATE でも一致した行数を返させる
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC&clientFoundRows=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	}
}

// Open はDB接続を開き、プールを設定して疎通確認を行います。
func Open(ctx context.Context, cfg config.Database) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(cfg.Driver)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(string(dialect), GetDSN(cfg))
	if err != nil {
		return nil, "", fmt.Errorf("could not open database connection: %w", err)
	}
	configurePool(db, dialect, cfg)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, "", fmt.Errorf("could not ping database: %w", err)
	}
	return db, dialect, nil
}

func configurePool(db *sql.DB, dialect Dialect, cfg config.Database) {
	if dialect == SQLite {
		// SQLite は書き込みが直列なので接続は1本に固定する
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		return
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)
}

// InitDB はデータベース接続を初期化します。失敗した場合はプロセスを終了します。
func InitDB(ctx context.Context, cfg config.Database, logger *log.Logger) (*sql.DB, Dialect) {
	db, dialect, err := Open(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "driver", cfg.Driver, "err", err)
	}
	logger.Info("Successfully connected to database", "driver", dialect)
	return db, dialect
}
