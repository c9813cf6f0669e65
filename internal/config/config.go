// Package config loads the YAML run configuration. Strategy and platform
// choices are tagged variants: the single mapping key selects the concrete
// type.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Symbols     []string          `yaml:"symbols"`
	Start       time.Time         `yaml:"start"`
	End         time.Time         `yaml:"end"`
	Journal     string            `yaml:"journal"`
	Report      string            `yaml:"report"`
	ResultsCSV  string            `yaml:"results_csv"`
	Chart       string            `yaml:"chart"`
	StrategyRef StrategyReference `yaml:"strategy"`
	PlatformRef PlatformReference `yaml:"platform"`
	Live        Live              `yaml:"live"`
}

func Read(r io.Reader) (*Config, error) {
	var cfg Config
	d := yaml.NewDecoder(r)
	if err := d.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}
	return &cfg, nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// strategy configs

type ORB struct {
	TopGappers       int     `yaml:"top_gappers"`
	AvVolWindow      int     `yaml:"av_vol_window"`
	TakeProfit       float64 `yaml:"take_profit"`
	StopLoss         float64 `yaml:"stop_loss"`
	BarsPerSession   float64 `yaml:"bars_per_session"`
	IntervalMinutes  int     `yaml:"interval_minutes"`
	Volume           int64   `yaml:"volume"`
	EntryWeight      float64 `yaml:"entry_weight"`
	ForceFlatAtClose *bool   `yaml:"force_flat_at_close"`
}

type LinReg struct {
	MediumLookback   int     `yaml:"medium_lookback"`
	LongLookback     int     `yaml:"long_lookback"`
	EntrySigmas      float64 `yaml:"entry_sigmas"`
	StopSigmas       float64 `yaml:"stop_sigmas"`
	SigmaSource      string  `yaml:"sigma_source"`
	IntervalMinutes  int     `yaml:"interval_minutes"`
	Volume           int64   `yaml:"volume"`
	EntryWeight      float64 `yaml:"entry_weight"`
	ForceFlatAtClose *bool   `yaml:"force_flat_at_close"`
}

type Strategy interface{}

type StrategyReference struct {
	Strategy Strategy
}

func (w *StrategyReference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid strategy yaml format")
	}

	key := value.Content[0].Value
	switch key {
	case "orb":
		var orb ORB
		if err := value.Content[1].Decode(&orb); err != nil {
			return fmt.Errorf("failed parsing orb strategy config: %w", err)
		}
		w.Strategy = orb
	case "linreg":
		var linreg LinReg
		if err := value.Content[1].Decode(&linreg); err != nil {
			return fmt.Errorf("failed parsing linreg strategy config: %w", err)
		}
		w.Strategy = linreg
	default:
		return fmt.Errorf("unknown strategy type: %s", key)
	}

	return nil
}

// platform configs

type Alpaca struct {
	ApiKey   string `yaml:"api_key"`
	Secret   string `yaml:"secret"`
	DataUrl  string `yaml:"data_url"`
	TradeUrl string `yaml:"trade_url"`
	Feed     string `yaml:"feed"`
}

type CSV struct {
	Dir        string `yaml:"dir"`
	BarMinutes int    `yaml:"bar_minutes"`
}

type Platform interface{}

type PlatformReference struct {
	Platform Platform
}

func (w *PlatformReference) UnmarshalYAML(value *yaml.Node) error {
	if len(value.Content) == 0 {
		return nil
	}

	if value.Kind != yaml.MappingNode || len(value.Content) != 2 {
		return errors.New("invalid platform yaml format")
	}

	key := value.Content[0].Value
	switch key {
	case "alpaca":
		var alpaca Alpaca
		if err := value.Content[1].Decode(&alpaca); err != nil {
			return fmt.Errorf("failed parsing alpaca platform config: %w", err)
		}
		w.Platform = alpaca
	case "csv":
		var csv CSV
		if err := value.Content[1].Decode(&csv); err != nil {
			return fmt.Errorf("failed parsing csv platform config: %w", err)
		}
		w.Platform = csv
	default:
		return fmt.Errorf("unknown platform type: %s", key)
	}

	return nil
}

// live settings

type Live struct {
	Symbols        []string `yaml:"symbols"`
	MediumLookback int      `yaml:"medium_lookback"`
	LongLookback   int      `yaml:"long_lookback"`
	EntrySigmas    float64  `yaml:"entry_sigmas"`
	StopSigmas     float64  `yaml:"stop_sigmas"`
	SigmaSource    string   `yaml:"sigma_source"`
	Volume         int64    `yaml:"volume"`
	PollSeconds    int      `yaml:"poll_seconds"`
}
