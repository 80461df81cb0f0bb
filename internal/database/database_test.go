package database

import (
	"strings"
	"testing"

	"github.com/xelth-com/eckscan/internal/config"
)

func TestIsEmbedded(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.DatabaseConfig
		want bool
	}{
		{"localhost without password", config.DatabaseConfig{Host: "localhost"}, true},
		{"localhost with password", config.DatabaseConfig{Host: "localhost", Password: "x"}, false},
		{"remote host", config.DatabaseConfig{Host: "db.internal"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmbedded(tt.cfg); got != tt.want {
				t.Errorf("IsEmbedded() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(config.DatabaseConfig{
		Host:     "db",
		Port:     "6543",
		Username: "scan",
		Password: "pw",
		Database: "wh",
	})
	for _, part := range []string{"host=db", "port=6543", "user=scan", "password=pw", "dbname=wh", "sslmode=disable"} {
		if !strings.Contains(dsn, part) {
			t.Errorf("DSN %q missing %q", dsn, part)
		}
	}
}
