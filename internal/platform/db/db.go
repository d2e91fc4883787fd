package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"presensi-backend/internal/platform/config"
)

const driverName = "mysql"

// Schema holds the only state this service owns: per-device daily locks and
// the journal of submissions forwarded to the spreadsheet.
const Schema = `
CREATE TABLE IF NOT EXISTS device_locks (
	device_id   VARCHAR(64) NOT NULL,
	lock_date   DATE        NOT NULL,
	checked_in  TINYINT(1)  NOT NULL DEFAULT 0,
	checked_out TINYINT(1)  NOT NULL DEFAULT 0,
	updated_at  DATETIME(6) NOT NULL,
	PRIMARY KEY (device_id, lock_date)
);

CREATE TABLE IF NOT EXISTS submissions (
	submission_ulid CHAR(26)    NOT NULL PRIMARY KEY,
	action          VARCHAR(16) NOT NULL,
	kind            VARCHAR(16) NULL,
	nip             VARCHAR(32) NOT NULL,
	device_id       VARCHAR(64) NULL,
	accepted        TINYINT(1)  NOT NULL,
	submitted_at    DATETIME(6) NOT NULL,
	INDEX idx_submissions_nip (nip, submitted_at)
);
`

func Connect(c config.DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	// Lock traffic is a handful of writes per staff member per day.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}

// InitSchema runs Schema one statement at a time so the DSN does not need
// multiStatements.
func InitSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
