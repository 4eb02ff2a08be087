package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	App         AppConfig         `toml:"app"`
	Loop        LoopConfig        `toml:"loop"`
	Scene       SceneConfig       `toml:"scene"`
	Controllers ControllersConfig `toml:"controllers"`
	Input       InputConfig       `toml:"input"`
	Camera      CameraConfig      `toml:"camera"`
	Scripting   ScriptingConfig   `toml:"scripting"`
	Database    DatabaseConfig    `toml:"database"`
	Journal     JournalConfig     `toml:"journal"`
	Logging     LoggingConfig     `toml:"logging"`
}

type AppConfig struct {
	Name      string `toml:"name"`
	StartTime int64  // unix seconds, set at boot; stamps the journal run
}

type LoopConfig struct {
	FrameInterval time.Duration `toml:"frame_interval"` // 0 = run frames back to back
	MaxFrames     uint64        `toml:"max_frames"`     // 0 = until quit
	PresentEvery  uint64        `toml:"present_every"`  // log presenter sampling, in frames
}

type SceneConfig struct {
	Path string `toml:"path"`
}

type ControllersConfig struct {
	Manifest string `toml:"manifest"`
}

type InputConfig struct {
	Replay      string `toml:"replay"` // empty = no scripted input
	QuitOnEsc   bool   `toml:"quit_on_escape"`
	WatchSignal bool   `toml:"watch_signals"`
}

type CameraConfig struct {
	Speed    float64    `toml:"speed"` // units per second
	Position [3]float64 `toml:"position"`
}

type ScriptingConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the journal
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type JournalConfig struct {
	SampleEvery uint64        `toml:"sample_every"` // frames between samples
	FlushEvery  int           `toml:"flush_every"`  // samples buffered before a write
	Timeout     time.Duration `toml:"timeout"`
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
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.App.StartTime = time.Now().Unix()
	return cfg, nil
}

// Default returns the built-in configuration used when no file is given.
func Default() *Config {
	cfg := defaults()
	cfg.App.StartTime = time.Now().Unix()
	return cfg
}

func (c *Config) validate() error {
	if c.Loop.FrameInterval < 0 {
		return fmt.Errorf("loop.frame_interval must not be negative")
	}
	if c.Journal.SampleEvery == 0 {
		return fmt.Errorf("journal.sample_every must be positive")
	}
	if c.Journal.FlushEvery <= 0 {
		return fmt.Errorf("journal.flush_every must be positive")
	}
	if c.Scripting.Enabled && c.Scripting.Dir == "" {
		return fmt.Errorf("scripting.dir is required when scripting is enabled")
	}
	return nil
}

func defaults() *Config {
	return &Config{
		App: AppConfig{
			Name: "starfield",
		},
		Loop: LoopConfig{
			FrameInterval: 16 * time.Millisecond,
			PresentEvery:  300,
		},
		Scene: SceneConfig{
			Path: "data/yaml/scene_list.yaml",
		},
		Controllers: ControllersConfig{
			Manifest: "data/yaml/controllers.yaml",
		},
		Input: InputConfig{
			QuitOnEsc:   true,
			WatchSignal: true,
		},
		Camera: CameraConfig{
			Speed:    2.5,
			Position: [3]float64{0, 0, 3},
		},
		Scripting: ScriptingConfig{
			Enabled: false,
			Dir:     "scripts",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Journal: JournalConfig{
			SampleEvery: 60,
			FlushEvery:  10,
			Timeout:     5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
