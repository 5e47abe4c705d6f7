package config

import (
	"log"
	"strings"
	"time"

	"chuchuang-service/internal/engine"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Game     engine.Rules   `mapstructure:"game"`
	Room     RoomConfig     `mapstructure:"room"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // postgres, mysql, sqlite
	DSN    string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	SnapshotTTL time.Duration `mapstructure:"snapshotTTL"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"` // hours
}

type RoomConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	CleanupInterval time.Duration `mapstructure:"cleanupInterval"`
	MaxRooms        int           `mapstructure:"maxRooms"`
}

var GlobalConfig *Config

// SetDefaults registers every key so env overrides work without a config file entry.
func SetDefaults(v *viper.Viper) {
	rules := engine.DefaultRules()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.snapshotTTL", 2*time.Hour)
	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.expire", 24)

	counts := make(map[string]int, len(rules.CompanyCounts))
	for company, n := range rules.CompanyCounts {
		counts[string(company)] = n
	}
	v.SetDefault("game.companyCounts", counts)
	v.SetDefault("game.handSize", rules.HandSize)
	v.SetDefault("game.startingCoins", rules.StartingCoins)
	v.SetDefault("game.removedCards", rules.RemovedCards)
	v.SetDefault("game.minPlayers", rules.MinPlayers)
	v.SetDefault("game.maxPlayers", rules.MaxPlayers)
	v.SetDefault("game.actionLogLimit", rules.ActionLogLimit)

	v.SetDefault("room.idleTimeout", 30*time.Minute)
	v.SetDefault("room.cleanupInterval", time.Minute)
	v.SetDefault("room.maxRooms", 1000)
}

// Load reads path (optional) and CC_* environment overrides into a Config.
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("CC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.Game.CompanyCounts = upperCompanies(cfg.Game.CompanyCounts)
	if err := cfg.Game.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// upperCompanies restores company keys, which viper lowercases.
func upperCompanies(counts map[engine.Company]int) map[engine.Company]int {
	out := make(map[engine.Company]int, len(counts))
	for company, n := range counts {
		out[engine.Company(strings.ToUpper(string(company)))] = n
	}
	return out
}

func LoadConfig(path string) {
	cfg, err := Load(path)
	if err != nil {
		log.Fatalf("Error loading config %s: %v", path, err)
	}
	GlobalConfig = cfg
}
