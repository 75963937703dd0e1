package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	CloudCfg     *CloudConfig
	PriceCfg     *PriceConfig
	MqttCfg      *MqttConfig
	Optimizer    *OptimizerConfig
	Solar        *SolarConfig
	DatabaseURL  string
	Migrations   string
	Mode         string
	DispatchCron string
	DryRun       bool
	EVCharging   bool
	ListenAddr   string
	APITokenHash string
	LogLevel     string
}

type CloudConfig struct {
	Email        string
	Password     string
	PlantID      int64
	PollInterval time.Duration
}

type PriceConfig struct {
	TibberToken  string
	EntsoeToken  string
	EntsoeDomain string
	NordpoolArea string
}

type MqttConfig struct {
	Host     string
	Username string
	Password string
}

// OptimizerConfig carries the tunables of the schedule optimizer. Values come
// from the environment with the defaults the Sunpura app ships with.
type OptimizerConfig struct {
	LowPriceThreshold  float64       `env:"LOW_PRICE_THRESHOLD" envDefault:"0.08"`
	HighPriceThreshold float64       `env:"HIGH_PRICE_THRESHOLD" envDefault:"0.25"`
	ReserveSOC         float64       `env:"RESERVE_SOC" envDefault:"15"`
	EVReserveSOC       float64       `env:"EV_RESERVE_SOC" envDefault:"20"`
	DefaultChargeW     int           `env:"DEFAULT_CHARGE_W" envDefault:"2400"`
	DefaultDischargeW  int           `env:"DEFAULT_DISCHARGE_W" envDefault:"2400"`
	FallbackPrice      float64       `env:"FALLBACK_PRICE" envDefault:"0.25"`
	DefaultConsumption float64       `env:"DEFAULT_CONSUMPTION_KWH" envDefault:"0.5"`
	SourceTimeout      time.Duration `env:"SOURCE_TIMEOUT" envDefault:"15s"`
}

func OptimizerFromEnv() (*OptimizerConfig, error) {
	cfg := &OptimizerConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SolarConfig describes the PV array for the forecast.solar estimate. With no
// latitude and longitude set the solar forecast is skipped.
type SolarConfig struct {
	Latitude    float64 `env:"SOLAR_LAT"`
	Longitude   float64 `env:"SOLAR_LON"`
	Declination float64 `env:"SOLAR_DECLINATION" envDefault:"30"`
	Azimuth     float64 `env:"SOLAR_AZIMUTH" envDefault:"0"`
	KWP         float64 `env:"SOLAR_KWP" envDefault:"5"`
}

func (c *SolarConfig) Configured() bool {
	return c.Latitude != 0 || c.Longitude != 0
}

func SolarFromEnv() (*SolarConfig, error) {
	cfg := &SolarConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
