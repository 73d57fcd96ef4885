package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// Params describes a MySQL connection.
type Params struct {
	User string
	Pass string
	Host string
	Port string
	Name string
	// MultiStatements is needed by the migration runner only.
	MultiStatements bool
}

// DSN renders p in go-sql-driver format.
func (p Params) DSN() string {
	auth := p.User
	if p.Pass != "" {
		auth = fmt.Sprintf("%s:%s", p.User, p.Pass)
	}
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, p.Host, p.Port, p.Name)
	if p.MultiStatements {
		dsn += "&multiStatements=true"
	}
	return dsn
}

// Open connects to MySQL and verifies the connection.
func Open(p Params) (*sql.DB, error) {
	return OpenDSN(p.DSN())
}

// OpenDSN is Open for a prebuilt DSN (tests, tooling).
func OpenDSN(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
