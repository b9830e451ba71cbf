package database

import (
	"context"
	"database/sql"
	"fmt"
)

const mysqlSchema = `
CREATE TABLE IF NOT EXISTS todos (
	id CHAR(36) NOT NULL PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	description TEXT NULL,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	status VARCHAR(20) NOT NULL DEFAULT 'todo',
	priority VARCHAR(10) NOT NULL,
	category VARCHAR(100) NOT NULL,
	due_date DATETIME(6) NULL,
	created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
	updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6) ON UPDATE CURRENT_TIMESTAMP(6),
	CONSTRAINT todos_status_check CHECK (status IN ('todo', 'in-progress', 'completed')),
	CONSTRAINT todos_priority_check CHECK (priority IN ('low', 'medium', 'high')),
	INDEX idx_todos_status (status),
	INDEX idx_todos_category (category),
	INDEX idx_todos_created_at (created_at)
)`

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
	id UUID PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT FALSE,
	status VARCHAR(20) NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in-progress', 'completed')),
	priority VARCHAR(10) NOT NULL CHECK (priority IN ('low', 'medium', 'high')),
	category VARCHAR(100) NOT NULL,
	due_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos (status)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_category ON todos (category)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos (created_at DESC)`,
	// アプリ以外からの更新でも updated_at を進める
	`CREATE OR REPLACE FUNCTION set_todos_updated_at() RETURNS TRIGGER AS $$
BEGIN
	IF NEW.updated_at = OLD.updated_at THEN
		NEW.updated_at = NOW();
	END IF;
	RETURN NEW;
END;
$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS todos_updated_at ON todos`,
	`CREATE TRIGGER todos_updated_at BEFORE UPDATE ON todos
	FOR EACH ROW EXECUTE FUNCTION set_todos_updated_at()`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS todos (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	description TEXT,
	completed BOOLEAN NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'todo' CHECK (status IN ('todo', 'in-progress', 'completed')),
	priority TEXT NOT NULL CHECK (priority IN ('low', 'medium', 'high')),
	category TEXT NOT NULL,
	due_date DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_status ON todos (status)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_category ON todos (category)`,
	`CREATE INDEX IF NOT EXISTS idx_todos_created_at ON todos (created_at)`,
}

// SchemaStatements は方言ごとのテーブル作成SQLを返します。
func SchemaStatements(d Dialect) []string {
	switch d {
	case Postgres:
		return postgresSchema
	case SQLite:
		return sqliteSchema
	default:
		return []string{mysqlSchema}
	}
}

// Migrate は todos テーブルを作成します。既に存在する場合は何もしません。
func Migrate(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range SchemaStatements(d) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("could not migrate todos table: %w", err)
		}
	}
	return nil
}
