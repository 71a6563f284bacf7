package config

import (
	"fmt"
	"time"

	"github.com/lifequest/lifequest-services/internal/character"
	"github.com/lifequest/lifequest-services/shared-libs/envconfig"
)

// Data store names.
const (
	DataStoreFirestore = "firestore"
	DataStoreMemory    = "memory"
)

type Config struct {
	Port         string `validate:"required,numeric"`
	GCPProjectID string `validate:"required_if=DataStore firestore"`
	DataStore    string `validate:"required,oneof=firestore memory"`
	LogLevel     string `validate:"omitempty,oneof=debug info warn error"`
	Timezone     string `validate:"required"`
	Auth         AuthConfig
	Firestore    FirestoreConfig
	Session      SessionConfig
}

type AuthConfig struct {
	Mode     string `validate:"required,oneof=firebase noop"`
	JWKSURL  string `validate:"omitempty,url"`
	Audience string `validate:"required_if=Mode firebase"`
	Issuer   string
}

type FirestoreConfig struct {
	Database     string `validate:"required"`
	EmulatorHost string
}

type SessionConfig struct {
	SaveDebounce time.Duration `validate:"gt=0"`
	IdleTTL      time.Duration `validate:"gt=0"`
}

func Load() (Config, error) {
	saveDebounce, err := envconfig.GetDuration("SAVE_DEBOUNCE", character.DefaultSaveDebounce)
	if err != nil {
		return Config{}, err
	}
	idleTTL, err := envconfig.GetDuration("SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Port:         envconfig.Get("PORT", "8080"),
		GCPProjectID: envconfig.Get("GCP_PROJECT_ID", ""),
		DataStore:    envconfig.Get("DATASTORE", DataStoreFirestore),
		LogLevel:     envconfig.Get("LOG_LEVEL", "info"),
		Timezone:     envconfig.Get("TIMEZONE", "UTC"),
		Auth: AuthConfig{
			Mode:     envconfig.Get("AUTH_MODE", "firebase"),
			JWKSURL:  envconfig.Get("FIREBASE_JWKS_URL", ""),
			Audience: envconfig.Get("FIREBASE_AUDIENCE", envconfig.Get("GCP_PROJECT_ID", "")),
			Issuer:   envconfig.Get("FIREBASE_ISSUER", ""),
		},
		Firestore: FirestoreConfig{
			Database:     envconfig.Get("FIRESTORE_DATABASE", "(default)"),
			EmulatorHost: envconfig.Get("FIRESTORE_EMULATOR_HOST", ""),
		},
		Session: SessionConfig{
			SaveDebounce: saveDebounce,
			IdleTTL:      idleTTL,
		},
	}
	if err := envconfig.Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Location resolves the configured day-boundary timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
