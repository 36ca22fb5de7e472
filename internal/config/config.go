package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Engine    EngineConfig    `toml:"engine"`
	Scripting ScriptingConfig `toml:"scripting"`
	Content   ContentConfig   `toml:"content"`
	Logging   LoggingConfig   `toml:"logging"`
}

type ServerConfig struct {
	Name      string `toml:"name"`
	WorldID   int64  `toml:"world_id"`
	StartTime int64  // set at boot, not from config
}

type EngineConfig struct {
	TickRate           time.Duration `toml:"tick_rate"`
	RandomTickAttempts int           `toml:"random_tick_attempts"`
}

type ScriptingConfig struct {
	Enabled    bool   `toml:"enabled"`
	ScriptsDir string `toml:"scripts_dir"`
}

type ContentConfig struct {
	PacksDir string `toml:"packs_dir"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:    "RedForge",
			WorldID: 1,
		},
		Engine: EngineConfig{
			TickRate:           50 * time.Millisecond,
			RandomTickAttempts: 3,
		},
		Scripting: ScriptingConfig{
			Enabled:    true,
			ScriptsDir: "scripts",
		},
		Content: ContentConfig{
			PacksDir: "content",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
