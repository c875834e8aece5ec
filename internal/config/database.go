package config

import (
	"fmt"
	"os"
	"time"
)

// DatabaseConfig holds the MySQL connection and pool settings. The
// credentials are required; the pool knobs default to values sized
// for a single application instance.
type DatabaseConfig struct {
	User            string
	Pass            string
	Host            string
	Port            string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// LoadDatabaseConfig reads the DB_* environment variables. Missing
// required values cause the program to exit with a fatal log message.
func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		User:            must("DB_USER"),
		Pass:            os.Getenv("DB_PASS"), // empty allowed
		Host:            must("DB_HOST"),
		Port:            must("DB_PORT"),
		Name:            must("DB_NAME"),
		MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: envDur("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		PingTimeout:     envDur("DB_PING_TIMEOUT", 5*time.Second),
	}
}

// DSN renders the go-sql-driver connection string. parseTime maps
// DATETIME columns to time.Time and loc pins them to UTC.
// clientFoundRows makes RowsAffected report matched rows rather than
// changed rows; the group-row touch lock depends on that count.
func (c DatabaseConfig) DSN() string {
	auth := c.User
	if c.Pass != "" {
		auth = fmt.Sprintf("%s:%s", c.User, c.Pass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC&clientFoundRows=true",
		auth, c.Host, c.Port, c.Name)
}
