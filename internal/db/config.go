package db

import (
	"fmt"
	"os"
)

// Config holds the connection parameters of the PostgreSQL invocation ledger.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // disable, require, verify-ca, verify-full
	// DSN, when set, is used verbatim and the other fields are ignored.
	DSN string
}

// FromEnv reads DB_* variables; a full DB_DSN wins over individual fields.
func FromEnv() Config {
	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "bda_pipeline"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		DSN:      os.Getenv("DB_DSN"),
	}
}

func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, urlEncode(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var n int
		_, _ = fmt.Sscanf(v, "%d", &n)
		if n != 0 {
			return n
		}
	}
	return def
}

// urlEncode percent-encodes the characters that would break the password
// inside a connection URL.
func urlEncode(s string) string {
	replacer := map[rune]string{
		'%': "%25",
		'@': "%40",
		':': "%3A",
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if enc, ok := replacer[r]; ok {
			for _, er := range enc {
				out = append(out, er)
			}
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
