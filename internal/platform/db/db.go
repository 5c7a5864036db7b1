package db

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

const driverName = "mysql"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

// LendingConfig holds the lending policy knobs (fine rate, loan defaults, sweep cadence).
type LendingConfig struct {
	FineRatePerDay       int64 `yaml:"fine_rate_per_day"`
	DefaultLoanDays      int   `yaml:"default_loan_days"`
	DefaultRenewalDays   int   `yaml:"default_renewal_days"`
	MaxRenewals          int   `yaml:"max_renewals"`
	SweepIntervalMinutes int   `yaml:"sweep_interval_minutes"`
}

type Config struct {
	Version string         `yaml:"version"`
	Mode    string         `yaml:"mode"`
	Server  ServerConfig   `yaml:"server"`
	DB      DatabaseConfig `yaml:"database"`
	Lending LendingConfig  `yaml:"lending"`
}

func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fall back to the standing policy when the file leaves a knob unset.
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 5001
	}
	if cfg.Lending.FineRatePerDay == 0 {
		cfg.Lending.FineRatePerDay = 5
	}
	if cfg.Lending.DefaultLoanDays == 0 {
		cfg.Lending.DefaultLoanDays = 14
	}
	if cfg.Lending.DefaultRenewalDays == 0 {
		cfg.Lending.DefaultRenewalDays = 7
	}
	if cfg.Lending.MaxRenewals == 0 {
		cfg.Lending.MaxRenewals = 2
	}
	if cfg.Lending.SweepIntervalMinutes == 0 {
		cfg.Lending.SweepIntervalMinutes = 60
	}

	return &cfg, nil
}

func Connect(c DatabaseConfig) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&tls=false&timeout=3s&readTimeout=5s&writeTimeout=5s&loc=UTC",
		c.Username, c.Password, c.Host, c.Port, c.DBName)

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}

	// Keep the pool sum below MySQL max_connections.
	db.SetMaxOpenConns(80)
	db.SetMaxIdleConns(20)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return db, nil
}
