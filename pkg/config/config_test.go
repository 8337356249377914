package config

import (
	"testing"
	"time"
)

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ACCESS_TOKEN_TTL", "30m")
	t.Setenv("NATS_ENABLED", "false")
	t.Setenv("RESERVATION_CODE_ATTEMPTS", "not-a-number")
	t.Setenv("HOTEL_TIMEZONE", "Asia/Manila")

	cfg := Load()
	if cfg.Server.Port != "9090" {
		t.Errorf("port = %q", cfg.Server.Port)
	}
	if cfg.Auth.AccessTokenTTL != 30*time.Minute {
		t.Errorf("ttl = %v", cfg.Auth.AccessTokenTTL)
	}
	if cfg.NATS.Enabled {
		t.Error("expected NATS disabled")
	}
	if cfg.Hotel.ReservationCodeAttempts != 8 {
		t.Errorf("bad ints must fall back, got %d", cfg.Hotel.ReservationCodeAttempts)
	}
	if cfg.Hotel.Location().String() != "Asia/Manila" {
		t.Errorf("location = %v", cfg.Hotel.Location())
	}
}

func TestLocationFallsBackToUTC(t *testing.T) {
	if loc := (HotelConfig{TimeZone: "Mars/Olympus"}).Location(); loc != time.UTC {
		t.Errorf("expected UTC, got %v", loc)
	}
}
