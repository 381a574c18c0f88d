package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Postgres struct {
		DSN string `env:"DATABASE_URL,required"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	Chain struct {
		EtherscanURL    string        `env:"ETHERSCAN_URL" envDefault:"https://api.etherscan.io/api"`
		EtherscanAPIKey string        `env:"ETHERSCAN_API_KEY" envDefault:""`
		ChainID         int64         `env:"CHAIN_ID" envDefault:"1"`
		RequestTimeout  time.Duration `env:"CHAIN_REQUEST_TIMEOUT" envDefault:"15s"`
	}

	Credits struct {
		MinConfirmations int64 `env:"MIN_CONFIRMATIONS" envDefault:"3"`

		// How many wei buy one credit.
		WeiPerCredit int64 `env:"WEI_PER_CREDIT" envDefault:"100000000000000"`

		// Hard cap applied to a single transaction value before crediting.
		MaxTxValueWei int64 `env:"MAX_TX_VALUE_WEI" envDefault:"5000000000000000000"`
	}

	Compliance struct {
		EnforceSanctions bool          `env:"ENFORCE_SANCTIONS" envDefault:"true"`
		SanctionsTTL     time.Duration `env:"SANCTIONS_CACHE_TTL" envDefault:"24h"`
		SanctionsURLs    []string      `env:"SANCTIONS_URLS" envSeparator:"," envDefault:"https://www.treasury.gov/ofac/downloads/sanctions/1.0/sdn_advanced.xml,https://www.treasury.gov/ofac/downloads/sanctions/1.0/cons_advanced.xml"`
		FetchTimeout     time.Duration `env:"SANCTIONS_FETCH_TIMEOUT" envDefault:"60s"`
		ConsentLookback  time.Duration `env:"CONSENT_LOOKBACK" envDefault:"2h"`

		TermsVersion       string `env:"TERMS_VERSION" envDefault:"v1"`
		PrivacyVersion     string `env:"PRIVACY_VERSION" envDefault:"v1"`
		DisclosuresVersion string `env:"DISCLOSURES_VERSION" envDefault:"v1"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Ignore a missing .env file, in production the variables
		// are expected to be set directly in the environment.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
