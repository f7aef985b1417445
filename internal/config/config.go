// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	XP        XPConfig        `mapstructure:"xp"`
	Games     GamesConfig     `mapstructure:"games"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// XPConfig holds the passive XP economy configuration.
type XPConfig struct {
	PerMessage       int64         `mapstructure:"per_message"`
	StealCooldown    time.Duration `mapstructure:"steal_cooldown"`
	StealSuccessRate float64       `mapstructure:"steal_success_rate"`
	StealPenalty     int64         `mapstructure:"steal_penalty"`
	StealMin         int64         `mapstructure:"steal_min"`
	StealMax         int64         `mapstructure:"steal_max"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	Farm     FarmConfig     `mapstructure:"farm"`
	Standing StandingConfig `mapstructure:"standing"`
	LastWord LastWordConfig `mapstructure:"lastword"`
	Guess    GuessConfig    `mapstructure:"guess"`
}

// FarmConfig holds rat-in-the-farm configuration.
type FarmConfig struct {
	MinPlayers   int           `mapstructure:"min_players"`
	MaxPlayers   int           `mapstructure:"max_players"`
	FarmerWinXP  int64         `mapstructure:"farmer_win_xp"`
	RatWinXP     int64         `mapstructure:"rat_win_xp"`
	LobbyTimeout time.Duration `mapstructure:"lobby_timeout"`
}

// StandingConfig holds last-person-standing configuration.
type StandingConfig struct {
	MinPlayers   int           `mapstructure:"min_players"`
	WinnerCount  int           `mapstructure:"winner_count"`
	WinnerXP     int64         `mapstructure:"winner_xp"`
	InitialDelay time.Duration `mapstructure:"initial_delay"`
	Interval     time.Duration `mapstructure:"interval"`
	LobbyTimeout time.Duration `mapstructure:"lobby_timeout"`
}

// LastWordConfig holds last-message-wins configuration.
type LastWordConfig struct {
	EntryFee      int64         `mapstructure:"entry_fee"`
	PotMultiplier float64       `mapstructure:"pot_multiplier"`
	MinPlayers    int           `mapstructure:"min_players"`
	Duration      time.Duration `mapstructure:"duration"`
	LobbyTimeout  time.Duration `mapstructure:"lobby_timeout"`
}

// GuessConfig holds guess-the-number configuration.
type GuessConfig struct {
	MaxTries int   `mapstructure:"max_tries"`
	MaxAward int64 `mapstructure:"max_award"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Environment variables use underscore separator and uppercase,
	// e.g. BOT_TOKEN, DATABASE_HOST, GAMES_LASTWORD_ENTRY_FEE.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is OK - env vars can provide all config
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("xp.per_message", 1)
	v.SetDefault("xp.steal_cooldown", "1h")
	v.SetDefault("xp.steal_success_rate", 0.5)
	v.SetDefault("xp.steal_penalty", 5)
	v.SetDefault("xp.steal_min", 5)
	v.SetDefault("xp.steal_max", 15)

	v.SetDefault("games.farm.min_players", 1)
	v.SetDefault("games.farm.max_players", 8)
	v.SetDefault("games.farm.farmer_win_xp", 75)
	v.SetDefault("games.farm.rat_win_xp", 100)
	v.SetDefault("games.farm.lobby_timeout", "120s")

	v.SetDefault("games.standing.min_players", 1)
	v.SetDefault("games.standing.winner_count", 3)
	v.SetDefault("games.standing.winner_xp", 3)
	v.SetDefault("games.standing.initial_delay", "5s")
	v.SetDefault("games.standing.interval", "10s")
	v.SetDefault("games.standing.lobby_timeout", "120s")

	v.SetDefault("games.lastword.entry_fee", 5)
	v.SetDefault("games.lastword.pot_multiplier", 0.5)
	v.SetDefault("games.lastword.min_players", 2)
	v.SetDefault("games.lastword.duration", "30s")
	v.SetDefault("games.lastword.lobby_timeout", "120s")

	v.SetDefault("games.guess.max_tries", 7)
	v.SetDefault("games.guess.max_award", 3)
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
