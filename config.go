package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config is the configuration struct for the service.
type Config struct {
	// Markets represents the traded markets, all broker symbols are considered when empty.
	Markets []string
	// ExcludedMarkets represents markets that are never traded.
	ExcludedMarkets []string
	// SymbolFilter restricts traded markets to symbols containing any of the filters.
	SymbolFilter []string
	// BrokerURL is the broker bridge base url.
	BrokerURL string
	// BrokerToken is the broker bridge access token.
	BrokerToken string
	// Risk overrides the default percentage of the balance risked per trade.
	Risk float64
	// Magic is the identifier attached to submitted orders.
	Magic int
	// TelegramToken is the telegram bot token.
	TelegramToken string
	// TelegramChat is the telegram chat notifications are delivered to.
	TelegramChat string
	// DBEndpoint is the order journal database endpoint.
	DBEndpoint string
	// DBUser is the order journal database user.
	DBUser string
	// DBPass is the order journal database user pass.
	DBPass string
	// MetricsAddr is the address metrics are served on.
	MetricsAddr string
	// LogLevel is the application log level.
	LogLevel string
	// ParamsFile is the path to the strategy params overrides file.
	ParamsFile string
	// FetchTimeout bounds the broker requests of a single evaluation cycle.
	FetchTimeout time.Duration

	registeredFlags map[string]bool
}

// Validate asserts the config sane inputs.
func (cfg *Config) Validate() error {
	var errs error

	if cfg.BrokerURL == "" {
		errs = errors.Join(errs, fmt.Errorf("broker url cannot be an empty string"))
	}
	if cfg.Risk < 0 || cfg.Risk > 100 {
		errs = errors.Join(errs, fmt.Errorf("risk must be in [0, 100], got %v", cfg.Risk))
	}
	if cfg.Magic < 0 {
		errs = errors.Join(errs, fmt.Errorf("magic number cannot be negative"))
	}
	if (cfg.TelegramToken == "") != (cfg.TelegramChat == "") {
		errs = errors.Join(errs, fmt.Errorf("telegram token and chat must be provided together"))
	}
	if cfg.FetchTimeout < 0 {
		errs = errors.Join(errs, fmt.Errorf("fetch timeout cannot be negative"))
	}
	if cfg.LogLevel != "" {
		_, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("invalid log level: %w", err))
		}
	}

	return errs
}

// registerFlag registers command line arguments of any type and tracks them to avoid reregistration.
func (cfg *Config) registerFlag(name string, value interface{}, usage string) error {
	if cfg.registeredFlags == nil {
		cfg.registeredFlags = make(map[string]bool)
	}

	if cfg.registeredFlags[name] {
		return nil
	}

	cfg.registeredFlags[name] = true

	defValue := os.Getenv(name)
	val := reflect.ValueOf(value)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("%s: value must be a non-nil pointer", name)
	}

	switch val.Elem().Kind() {
	case reflect.String:
		flag.StringVar(value.(*string), name, defValue, usage)
	case reflect.Bool:
		var def bool
		if defValue != "" {
			def, _ = strconv.ParseBool(defValue)
		}
		flag.BoolVar(value.(*bool), name, def, usage)
	case reflect.Int:
		var def int
		if defValue != "" {
			def, _ = strconv.Atoi(defValue)
		}
		flag.IntVar(value.(*int), name, def, usage)
	case reflect.Float64:
		var def float64
		if defValue != "" {
			def, _ = strconv.ParseFloat(defValue, 64)
		}
		flag.Float64Var(value.(*float64), name, def, usage)
	case reflect.Int64:
		// Only handle time.Duration
		dur, ok := value.(*time.Duration)
		if !ok {
			return fmt.Errorf("%s: unsupported int64 type", name)
		}
		var def time.Duration
		if defValue != "" {
			def, _ = time.ParseDuration(defValue)
		}
		flag.DurationVar(dur, name, def, usage)
	case reflect.Slice:
		// Only handle []string
		if val.Elem().Type().Elem().Kind() == reflect.String {
			var def []string
			if defValue != "" {
				def = strings.Split(defValue, ",")
			}
			flag.Func(name, usage, func(s string) error {
				*value.(*[]string) = strings.Split(s, ",")
				return nil
			})
			// Set default if not provided via flag
			if len(def) > 0 {
				*value.(*[]string) = def
			}
		} else {
			return fmt.Errorf("%s: unsupported slice type", name)
		}
	default:
		return fmt.Errorf("%s: unsupported type", name)
	}

	return nil
}

// loadConfig loads the configuration from environment variables and command line flags.
func loadConfig(cfg *Config, path string) error {
	if path == "" {
		path = ".env"
	}

	// Check if the expected .env file exists before loading it.
	_, err := os.Stat(path)
	if err == nil {
		err := godotenv.Load(path)
		if err != nil {
			return fmt.Errorf("loading .env file: %w", err)
		}
	}

	// Register command line arguments using loaded environment variables as defaults.
	flags := []struct {
		name  string
		value interface{}
		usage string
	}{
		{"markets", &cfg.Markets, "the traded markets"},
		{"excludedmarkets", &cfg.ExcludedMarkets, "the markets never traded"},
		{"symbolfilter", &cfg.SymbolFilter, "the symbol substrings traded markets must contain"},
		{"brokerurl", &cfg.BrokerURL, "the broker bridge url"},
		{"brokertoken", &cfg.BrokerToken, "the broker bridge access token"},
		{"risk", &cfg.Risk, "the percentage of the balance risked per trade"},
		{"magic", &cfg.Magic, "the identifier attached to submitted orders"},
		{"telegramtoken", &cfg.TelegramToken, "the telegram bot token"},
		{"telegramchat", &cfg.TelegramChat, "the telegram chat id"},
		{"dbendpoint", &cfg.DBEndpoint, "the order journal database endpoint"},
		{"dbuser", &cfg.DBUser, "the order journal database user"},
		{"dbpass", &cfg.DBPass, "the order journal database pass"},
		{"metricsaddr", &cfg.MetricsAddr, "the metrics server address"},
		{"loglevel", &cfg.LogLevel, "the log level"},
		{"paramsfile", &cfg.ParamsFile, "the strategy params overrides file"},
		{"fetchtimeout", &cfg.FetchTimeout, "the broker request timeout per evaluation cycle"},
	}

	for _, f := range flags {
		err = cfg.registerFlag(f.name, f.value, f.usage)
		if err != nil {
			return err
		}
	}

	// Parse command-line flags.
	flag.Parse()

	return cfg.Validate()
}
