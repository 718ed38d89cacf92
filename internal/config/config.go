package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	JWTSecret   string `mapstructure:"JWT_SECRET"`
	ListenAddr  string `mapstructure:"LISTEN_ADDR"`

	// ValkeyAddr backs the active-listener presence registry.
	ValkeyAddr string `mapstructure:"VALKEY_ADDR"`

	// AudioAPIURL is the control endpoint of the hosted audio transport.
	AudioAPIURL string `mapstructure:"AUDIO_API_URL"`
	AudioAppID  string `mapstructure:"AUDIO_APP_ID"`

	// SeatSyncDelayMS is the debounce window for coalesced seat writes.
	SeatSyncDelayMS int `mapstructure:"SEAT_SYNC_DELAY_MS"`
	// ComboWindowMS is the idle window before a combo session expires.
	ComboWindowMS int `mapstructure:"COMBO_WINDOW_MS"`
	// PresenceTTLSec is how long a listener stays visible without a heartbeat.
	PresenceTTLSec int `mapstructure:"PRESENCE_TTL_SEC"`
}

var AppConfig *Config

// SeatSyncDelay returns the seat debounce window as a duration.
func (c *Config) SeatSyncDelay() time.Duration {
	if c.SeatSyncDelayMS <= 0 {
		return 2500 * time.Millisecond
	}
	return time.Duration(c.SeatSyncDelayMS) * time.Millisecond
}

// ComboWindow returns the combo idle window as a duration.
func (c *Config) ComboWindow() time.Duration {
	if c.ComboWindowMS <= 0 {
		return 4500 * time.Millisecond
	}
	return time.Duration(c.ComboWindowMS) * time.Millisecond
}

// PresenceTTL returns the listener presence TTL as a duration.
func (c *Config) PresenceTTL() time.Duration {
	if c.PresenceTTLSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.PresenceTTLSec) * time.Second
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()

	viper.SetDefault("LISTEN_ADDR", ":8080")
	viper.SetDefault("VALKEY_ADDR", "127.0.0.1:6379")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
