package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCSV(t *testing.T) {
	require.Nil(t, CSV(""))
	require.Equal(t, []string{"kafka:9092", "kafka2:9092"}, CSV(" kafka:9092, ,kafka2:9092 "))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("SESSION_TTL_MINUTES", "30")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("BASE_URL", "https://boutique.example/")
	t.Setenv("STORAGE_DRIVER", "")

	cfg := Load()
	require.Equal(t, 8080, cfg.ServerPort)
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.True(t, cfg.AutoMigrate)
	require.Equal(t, "https://boutique.example", cfg.BaseURL)
	require.Equal(t, "local", cfg.Storage.Driver)
}
