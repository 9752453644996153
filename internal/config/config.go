// Package config loads and validates report configuration via Viper.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/JakeFAU/anp-fuel-report/internal/fuel"
)

// DefaultBaseURL is where ANP publishes the monthly price surveys.
const DefaultBaseURL = "https://www.gov.br/anp/pt-br/centrais-de-conteudo/dados-abertos/arquivos/shpc/dsan"

// Storage backends.
const (
	BackendLocal = "local"
	BackendGCS   = "gcs"
)

// Config captures every knob of a report run. It is treated as immutable once loaded.
type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Products ProductsConfig `mapstructure:"products"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SourceConfig describes the remote publisher.
type SourceConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	Years          []int  `mapstructure:"years"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
}

// ProductsConfig names the two dataset families the report needs.
type ProductsConfig struct {
	LPG             fuel.Product `mapstructure:"lpg"`
	GasolineEthanol fuel.Product `mapstructure:"gasoline_ethanol"`
}

// All returns the families in fetch order.
func (p ProductsConfig) All() []fuel.Product {
	return []fuel.Product{p.LPG, p.GasolineEthanol}
}

// StorageConfig selects where raw files and charts live.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// ReportConfig controls chart output.
type ReportConfig struct {
	OutputDir string  `mapstructure:"output_dir"`
	DPI       int     `mapstructure:"dpi"`
	TopN      int     `mapstructure:"top_n"`
	Parity    float64 `mapstructure:"parity"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MetricsConfig optionally pushes run metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// Load builds a Config from defaults, an optional file, a .env file and the environment.
// With no file and no FUELREPORT_* variables it returns the built-in defaults.
func Load(path string) (Config, error) {
	// A missing .env is the normal case.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FUELREPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Default returns the built-in configuration without touching files or the environment.
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults are plain values; decoding them cannot fail.
	_ = v.Unmarshal(&cfg)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", DefaultBaseURL)
	v.SetDefault("source.years", []int{2024, 2025})
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("source.user_agent", "anp-fuel-report/1.0")
	v.SetDefault("products.lpg.name", "GLP")
	v.SetDefault("products.lpg.dir", "dados_glp")
	v.SetDefault("products.lpg.prefix", "precos-glp")
	v.SetDefault("products.lpg.filter_known_products", false)
	v.SetDefault("products.gasoline_ethanol.name", "Gasolina_Etanol")
	v.SetDefault("products.gasoline_ethanol.dir", "dados_gasolina_etanol")
	v.SetDefault("products.gasoline_ethanol.prefix", "precos-gasolina-etanol")
	v.SetDefault("products.gasoline_ethanol.filter_known_products", true)
	v.SetDefault("storage.backend", BackendLocal)
	v.SetDefault("storage.base_dir", ".")
	// Keys without a default are invisible to AutomaticEnv during Unmarshal.
	v.SetDefault("storage.gcs_bucket", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("report.output_dir", "graficos")
	v.SetDefault("report.dpi", 300)
	v.SetDefault("report.top_n", 5)
	v.SetDefault("report.parity", 0.7)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("metrics.job", "anp_fuel_report")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Source.BaseURL) == "" {
		return fmt.Errorf("source.base_url is required")
	}
	if u, err := url.Parse(c.Source.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("source.base_url must be an absolute URL")
	}
	if len(c.Source.Years) == 0 {
		return fmt.Errorf("source.years must not be empty")
	}
	for _, year := range c.Source.Years {
		if year < 2000 || year > 9999 {
			return fmt.Errorf("source.years contains invalid year %d", year)
		}
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if err := c.validateProducts(); err != nil {
		return err
	}
	switch c.Storage.Backend {
	case BackendLocal:
		if strings.TrimSpace(c.Storage.BaseDir) == "" {
			return fmt.Errorf("storage.base_dir is required for the local backend")
		}
	case BackendGCS:
		if strings.TrimSpace(c.Storage.GCSBucket) == "" {
			return fmt.Errorf("storage.gcs_bucket is required for the gcs backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	if strings.TrimSpace(c.Report.OutputDir) == "" {
		return fmt.Errorf("report.output_dir is required")
	}
	if c.Report.DPI <= 0 {
		return fmt.Errorf("report.dpi must be > 0")
	}
	if c.Report.TopN <= 0 {
		return fmt.Errorf("report.top_n must be > 0")
	}
	if c.Report.Parity <= 0 {
		return fmt.Errorf("report.parity must be > 0")
	}
	return nil
}

func (c Config) validateProducts() error {
	dirs := map[string]bool{}
	prefixes := map[string]bool{}
	for _, key := range []struct {
		name    string
		product fuel.Product
	}{
		{"products.lpg", c.Products.LPG},
		{"products.gasoline_ethanol", c.Products.GasolineEthanol},
	} {
		if strings.TrimSpace(key.product.Dir) == "" {
			return fmt.Errorf("%s.dir is required", key.name)
		}
		if strings.TrimSpace(key.product.Prefix) == "" {
			return fmt.Errorf("%s.prefix is required", key.name)
		}
		if dirs[key.product.Dir] {
			return fmt.Errorf("%s.dir %q is shared with another product", key.name, key.product.Dir)
		}
		if prefixes[key.product.Prefix] {
			return fmt.Errorf("%s.prefix %q is shared with another product", key.name, key.product.Prefix)
		}
		dirs[key.product.Dir] = true
		prefixes[key.product.Prefix] = true
	}
	return nil
}

// RequestTimeout converts the per-request timeout into a duration.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}
