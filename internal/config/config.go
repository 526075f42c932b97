package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	RPCURL   string         `mapstructure:"rpc_url"`
	ABIPath  string         `mapstructure:"abi_path"`
	Venues   []VenueConfig  `mapstructure:"venues"`
	Tokens   TokensConfig   `mapstructure:"tokens"`
	Settings SettingsConfig `mapstructure:"settings"`
	Database DatabaseConfig `mapstructure:"database"`
	Log      LogConfig      `mapstructure:"log"`
}

// VenueConfig names a router contract that can quote the configured path.
type VenueConfig struct {
	Name   string `mapstructure:"name"`
	Router string `mapstructure:"router"`
}

// TokensConfig defines the input and output token of the sampled path.
type TokensConfig struct {
	Input  string `mapstructure:"input"`
	Output string `mapstructure:"output"`
}

// SettingsConfig defines the sampling and profit settings.
type SettingsConfig struct {
	TradeSize     uint64          `mapstructure:"trade_size"`
	MinProfit     decimal.Decimal `mapstructure:"min_profit"`
	CostEstimate  decimal.Decimal `mapstructure:"cost_estimate"`
	QuoteDecimals int32           `mapstructure:"quote_decimals"`
	PollInterval  time.Duration   `mapstructure:"poll_interval"`
	QuoteTimeout  time.Duration   `mapstructure:"quote_timeout"`
}

// DatabaseConfig defines the database connection settings.
type DatabaseConfig struct {
	Driver   string
	Path     string
	DSN      string
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string `mapstructure:"sslmode"`
}

// LogConfig defines the logger settings.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputFile string `mapstructure:"output_file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("abi_path", "abi/uniswap_v2_router02_abi.json")
	v.SetDefault("settings.quote_decimals", 6)
	v.SetDefault("settings.poll_interval", 10*time.Second)
	v.SetDefault("settings.quote_timeout", 3*time.Second)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "arbitrage.db")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Keys without a default are invisible to AutomaticEnv unless the file
	// sets them, so register the ones usually supplied from the environment.
	for _, key := range []string{
		"rpc_url",
		"database.dsn", "database.host", "database.user", "database.password", "database.dbname",
		"log.output_file",
	} {
		v.SetDefault(key, "")
	}
	v.SetDefault("settings.min_profit", "0")
	v.SetDefault("settings.cost_estimate", "0")
}

var decimalType = reflect.TypeOf(decimal.Decimal{})

// decimalHook decodes config numbers and strings into decimal.Decimal
// without going through float arithmetic for string input.
func decimalHook() mapstructure.DecodeHookFuncType {
	return func(_ reflect.Type, to reflect.Type, data any) (any, error) {
		if to != decimalType {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return decimal.NewFromString(strings.TrimSpace(v))
		case float64:
			return decimal.NewFromFloat(v), nil
		case float32:
			return decimal.NewFromFloat32(v), nil
		case int:
			return decimal.NewFromInt(int64(v)), nil
		case int64:
			return decimal.NewFromInt(v), nil
		}
		return data, nil
	}
}

// LoadConfig reads config.toml from path, applying DEXARB_* environment
// overrides. A .env file in the working directory is loaded first if present.
func LoadConfig(path string) (config Config, err error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix("dexarb")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err = v.ReadInConfig(); err != nil {
		return
	}

	err = v.Unmarshal(&config, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		decimalHook(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	return
}

// Validate reports every problem that would prevent the sampling loop from
// running with this configuration.
func (c Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.RPCURL) == "" {
		errs = append(errs, errors.New("rpc_url is required"))
	}
	if strings.TrimSpace(c.ABIPath) == "" {
		errs = append(errs, errors.New("abi_path is required"))
	}

	if len(c.Venues) < 2 {
		errs = append(errs, fmt.Errorf("at least 2 venues are required, got %d", len(c.Venues)))
	}
	seen := make(map[string]bool, len(c.Venues))
	for i, v := range c.Venues {
		if v.Name == "" {
			errs = append(errs, fmt.Errorf("venues[%d]: name is required", i))
		} else if seen[v.Name] {
			errs = append(errs, fmt.Errorf("venues[%d]: duplicate name %q", i, v.Name))
		}
		seen[v.Name] = true
		if !common.IsHexAddress(v.Router) {
			errs = append(errs, fmt.Errorf("venues[%d]: invalid router address %q", i, v.Router))
		}
	}

	if !common.IsHexAddress(c.Tokens.Input) {
		errs = append(errs, fmt.Errorf("tokens.input: invalid address %q", c.Tokens.Input))
	}
	if !common.IsHexAddress(c.Tokens.Output) {
		errs = append(errs, fmt.Errorf("tokens.output: invalid address %q", c.Tokens.Output))
	}
	if common.IsHexAddress(c.Tokens.Input) &&
		common.HexToAddress(c.Tokens.Input) == common.HexToAddress(c.Tokens.Output) {
		errs = append(errs, errors.New("tokens.input and tokens.output must differ"))
	}

	s := c.Settings
	if s.TradeSize == 0 {
		errs = append(errs, errors.New("settings.trade_size must be greater than 0"))
	}
	if s.MinProfit.IsNegative() {
		errs = append(errs, errors.New("settings.min_profit must not be negative"))
	}
	if s.CostEstimate.IsNegative() {
		errs = append(errs, errors.New("settings.cost_estimate must not be negative"))
	}
	if s.QuoteDecimals < 0 || s.QuoteDecimals > 36 {
		errs = append(errs, fmt.Errorf("settings.quote_decimals out of range: %d", s.QuoteDecimals))
	}
	if s.PollInterval <= 0 {
		errs = append(errs, errors.New("settings.poll_interval must be positive"))
	}
	if s.QuoteTimeout <= 0 || s.QuoteTimeout >= s.PollInterval {
		errs = append(errs, fmt.Errorf("settings.quote_timeout must be positive and below poll_interval (%s)", s.PollInterval))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if c.Database.DSN == "" && c.Database.Host == "" {
			errs = append(errs, errors.New("database.dsn or database.host is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver: unsupported %q", c.Database.Driver))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to print, with credentials masked.
func (c Config) Redacted() Config {
	if c.Database.Password != "" {
		c.Database.Password = "***"
	}
	if c.Database.DSN != "" {
		c.Database.DSN = "***"
	}
	return c
}
