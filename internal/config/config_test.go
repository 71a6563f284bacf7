package config

import (
	"testing"
	"time"
)

func TestLoadDefaultsForLocalDevelopment(t *testing.T) {
	t.Setenv("DATASTORE", "memory")
	t.Setenv("AUTH_MODE", "noop")
	t.Setenv("GCP_PROJECT_ID", "")
	t.Setenv("SAVE_DEBOUNCE", "")
	t.Setenv("SESSION_IDLE_TTL", "")
	t.Setenv("TIMEZONE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" || cfg.Session.SaveDebounce != 300*time.Millisecond || cfg.Session.IdleTTL != 30*time.Minute {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	loc, err := cfg.Location()
	if err != nil || loc != time.UTC {
		t.Fatalf("expected UTC, got %v (%v)", loc, err)
	}
}

func TestLoadFirestoreRequiresProject(t *testing.T) {
	t.Setenv("DATASTORE", "firestore")
	t.Setenv("AUTH_MODE", "noop")
	t.Setenv("GCP_PROJECT_ID", "")

	if _, err := Load(); err == nil {
		t.Fatalf("expected a validation error without GCP_PROJECT_ID")
	}
}

func TestLoadFirebaseAudienceDefaultsToProject(t *testing.T) {
	t.Setenv("DATASTORE", "firestore")
	t.Setenv("AUTH_MODE", "firebase")
	t.Setenv("GCP_PROJECT_ID", "lifequest-prod")
	t.Setenv("FIREBASE_AUDIENCE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Auth.Audience != "lifequest-prod" {
		t.Fatalf("expected audience to default to the project, got %q", cfg.Auth.Audience)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string][2]string{
		"datastore": {"DATASTORE", "redis"},
		"auth mode": {"AUTH_MODE", "clerk"},
		"debounce":  {"SAVE_DEBOUNCE", "soon"},
		"idle ttl":  {"SESSION_IDLE_TTL", "-1s"},
		"log level": {"LOG_LEVEL", "trace"},
		"port":      {"PORT", "http"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("DATASTORE", "memory")
			t.Setenv("AUTH_MODE", "noop")
			t.Setenv(kv[0], kv[1])
			if _, err := Load(); err == nil {
				t.Fatalf("expected %s=%s to be rejected", kv[0], kv[1])
			}
		})
	}
}

func TestLocationRejectsUnknownZone(t *testing.T) {
	cfg := Config{Timezone: "Mars/Olympus"}
	if _, err := cfg.Location(); err == nil {
		t.Fatalf("expected an unknown zone to fail")
	}
}
