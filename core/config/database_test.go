package config

import "testing"

func TestConfigConnectionStrings(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: "5432", User: "bot", Password: "p@ss", Name: "ledger", SSLMode: "disable"}

	if got, want := cfg.DSN(), "user=bot password=p@ss host=db port=5432 dbname=ledger sslmode=disable"; got != want {
		t.Fatalf("DSN() = %q, want %q", got, want)
	}
	if got, want := cfg.URL(), "postgres://bot:p%40ss@db:5432/ledger?sslmode=disable"; got != want {
		t.Fatalf("URL() = %q, want %q", got, want)
	}
}
