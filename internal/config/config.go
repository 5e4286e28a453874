// Package config loads the server configuration from configs/server.yaml
// with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env        string `yaml:"env" env:"TEAHOUSE_ENV" env-default:"local"`
	Listen     string `yaml:"listen" env:"TEAHOUSE_LISTEN" env-default:":8080"`
	BotName    string `yaml:"bot_name" env:"TEAHOUSE_BOT_NAME"`
	Timezone   string `yaml:"timezone" env:"TEAHOUSE_TIMEZONE" env-default:"Local"`
	ConfigsDir string `yaml:"configs_dir" env:"TEAHOUSE_CONFIGS_DIR" env-default:"./configs"`
	DataDir    string `yaml:"data_dir" env:"TEAHOUSE_DATA_DIR" env-default:"./data"`
	AdminsFile string `yaml:"admins_file" env:"TEAHOUSE_ADMINS_FILE" env-default:"./data/admins.json"`

	DB      DB      `yaml:"db" env-prefix:"TEAHOUSE_DB_"`
	SignIn  SignIn  `yaml:"sign_in" env-prefix:"TEAHOUSE_SIGN_IN_"`
	Gateway Gateway `yaml:"gateway" env-prefix:"TEAHOUSE_GATEWAY_"`
	Ledger  Ledger  `yaml:"ledger" env-prefix:"TEAHOUSE_LEDGER_"`
}

type DB struct {
	// Driver is sqlite, pgx or memory.
	Driver string `yaml:"driver" env:"DRIVER" env-default:"sqlite"`
	DSN    string `yaml:"dsn" env:"DSN" env-default:"./data/teahouse.sqlite"`
}

type SignIn struct {
	MinReward float64 `yaml:"min_reward" env:"MIN_REWARD" env-default:"50"`
	MaxReward float64 `yaml:"max_reward" env:"MAX_REWARD" env-default:"100"`
}

type Gateway struct {
	// JWTSecret enables HELLO token checks when set.
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	JWTIssuer      string        `yaml:"jwt_issuer" env:"JWT_ISSUER" env-default:"teahouse"`
	CommandTimeout time.Duration `yaml:"command_timeout" env:"COMMAND_TIMEOUT" env-default:"10s"`
	DedupWindow    time.Duration `yaml:"dedup_window" env:"DEDUP_WINDOW" env-default:"10m"`
}

type Ledger struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED" env-default:"true"`
	Mirror  Mirror `yaml:"mirror" env-prefix:"MIRROR_"`
}

type Mirror struct {
	Endpoint        string `yaml:"endpoint" env:"ENDPOINT"`
	Bucket          string `yaml:"bucket" env:"BUCKET"`
	Prefix          string `yaml:"prefix" env:"PREFIX" env-default:"teahouse"`
	AccessKeyID     string `yaml:"access_key_id" env:"ACCESS_KEY_ID"`
	SecretAccessKey string `yaml:"secret_access_key" env:"SECRET_ACCESS_KEY"`
}

func (m Mirror) Enabled() bool { return m.Endpoint != "" && m.Bucket != "" }

// Load reads path, falling back to the environment alone when the file
// does not exist.
func Load(path string) (*Config, error) {
	cfg := new(Config)
	if path == "" {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("cannot read env: %w", err)
		}
		return cfg, cfg.Validate()
	}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			return nil, fmt.Errorf("cannot read config %q: %w", path, err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("cannot read env: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// MustLoad is Load that exits the process on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return cfg
}

func (c *Config) Validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("unknown env %q", c.Env)
	}
	switch c.DB.Driver {
	case "sqlite", "pgx", "memory":
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	if c.SignIn.MinReward < 0 || c.SignIn.MaxReward < c.SignIn.MinReward {
		return fmt.Errorf("sign_in: bad reward range [%v, %v]", c.SignIn.MinReward, c.SignIn.MaxReward)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
