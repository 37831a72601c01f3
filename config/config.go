// Copyright 2024 The Accumulate Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package config loads the batch configuration.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gitlab.com/accumulatenetwork/nearbatch/pkg/errors"
	"gitlab.com/accumulatenetwork/nearbatch/protocol"
)

// EnvPrefix prefixes environment variables that override configuration
// values, for example NEARBATCH_NETWORK_RPC_URL.
const EnvPrefix = "NEARBATCH"

//go:embed template.yaml
var Template []byte

type Config struct {
	Network Network `mapstructure:"network"`
	Account Account `mapstructure:"account"`
	Batch   Batch   `mapstructure:"batch"`
	Logging Logging `mapstructure:"logging"`
	Metrics Metrics `mapstructure:"metrics"`
}

type Network struct {
	RPCURL   string        `mapstructure:"rpc-url" validate:"required,url"`
	Finality string        `mapstructure:"finality" validate:"oneof=final optimistic"`
	Timeout  time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type Account struct {
	ID         string `mapstructure:"id" validate:"required,near-account"`
	PrivateKey string `mapstructure:"private-key" validate:"required"`
}

type Batch struct {
	Mode          string        `mapstructure:"mode" validate:"oneof=commit async"`
	MaxInFlight   int           `mapstructure:"max-in-flight" validate:"gte=0"`
	SubmitTimeout time.Duration `mapstructure:"submit-timeout" validate:"gte=0"`
	// Permission selects the access key policy: none, full-access, or
	// function-call.
	Permission   string        `mapstructure:"permission" validate:"oneof=none full-access function-call"`
	Transactions []Transaction `mapstructure:"transactions" validate:"required,min=1,dive"`
}

type Transaction struct {
	Receiver string   `mapstructure:"receiver" validate:"required,near-account"`
	Actions  []Action `mapstructure:"actions" validate:"required,min=1,dive"`
}

type Action struct {
	Type    string `mapstructure:"type" validate:"omitempty,oneof=function-call transfer"`
	Method  string `mapstructure:"method" validate:"required_unless=Type transfer"`
	Args    string `mapstructure:"args"`
	Gas     uint64 `mapstructure:"gas"`
	Deposit string `mapstructure:"deposit"`
}

type Logging struct {
	Format string `mapstructure:"format" validate:"oneof=plain json"`
	Level  string `mapstructure:"level"`
	Color  bool   `mapstructure:"color"`
}

type Metrics struct {
	Listen string `mapstructure:"listen" validate:"omitempty,hostname_port"`
}

// Default returns the configuration defaults. It has no account or
// transactions so it is not valid on its own.
func Default() *Config {
	return &Config{
		Network: Network{
			RPCURL:   "https://rpc.testnet.near.org",
			Finality: "final",
			Timeout:  15 * time.Second,
		},
		Batch: Batch{
			Mode:          "commit",
			SubmitTimeout: 60 * time.Second,
			Permission:    "none",
		},
		Logging: Logging{
			Format: "plain",
			Level:  "info",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("network.rpc-url", d.Network.RPCURL)
	v.SetDefault("network.finality", d.Network.Finality)
	v.SetDefault("network.timeout", d.Network.Timeout)
	v.SetDefault("account.id", "")
	v.SetDefault("account.private-key", "")
	v.SetDefault("batch.mode", d.Batch.Mode)
	v.SetDefault("batch.max-in-flight", d.Batch.MaxInFlight)
	v.SetDefault("batch.submit-timeout", d.Batch.SubmitTimeout)
	v.SetDefault("batch.permission", d.Batch.Permission)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.color", d.Logging.Color)
	v.SetDefault("metrics.listen", "")
}

// Load reads a YAML, TOML, or JSON configuration file. ${VAR} references are
// expanded from a .env file next to the configuration file, falling back to
// the process environment. NEARBATCH_* environment variables override file
// values. The result is validated.
func Load(file string) (*Config, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("read %s: %w", file, err)
	}

	env, err := loadDotEnv(filepath.Join(filepath.Dir(file), ".env"))
	if err != nil {
		return nil, errors.BadRequest.WithFormat("load .env: %w", err)
	}

	b, err = expand(b, env)
	if err != nil {
		return nil, errors.UnknownError.Wrap(err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigType(strings.TrimPrefix(filepath.Ext(file), "."))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	err = v.ReadConfig(bytes.NewReader(b))
	if err != nil {
		return nil, errors.BadRequest.WithFormat("read %s: %w", file, err)
	}

	cfg := new(Config)
	err = v.Unmarshal(cfg)
	if err != nil {
		return nil, errors.BadRequest.WithFormat("unmarshal %s: %w", file, err)
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadDotEnv(file string) (map[string]string, error) {
	f, err := os.Open(file)
	switch {
	case err == nil:
		defer func() { _ = f.Close() }()
		return godotenv.Parse(f)
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	default:
		return nil, err
	}
}

// expand replaces ${VAR} and $VAR references. Undefined variables are an
// error. $$ is a literal $.
func expand(b []byte, env map[string]string) ([]byte, error) {
	var errs []error
	s := os.Expand(string(b), func(name string) string {
		if name == "$" {
			return "$"
		}
		if value, ok := env[name]; ok {
			return value
		}
		if value, ok := os.LookupEnv(name); ok {
			return value
		}
		errs = append(errs, fmt.Errorf("%q is not defined", name))
		return fmt.Sprintf("#!MISSING(%q)", name)
	})
	if len(errs) > 0 {
		return nil, errors.BadRequest.WithFormat("expand: %w", errors.Join(errs...))
	}
	return []byte(s), nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v, err := protocol.NewValidator()
	if err != nil {
		return errors.InternalError.WithFormat("create validator: %w", err)
	}
	err = v.Struct(c)
	if err != nil {
		return errors.BadRequest.WithFormat("invalid configuration: %w", err)
	}
	return nil
}
