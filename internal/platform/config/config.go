package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/config.yaml"

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// Enabled reports whether a MySQL server is configured. Without one the
// device locks live in memory.
func (d DatabaseConfig) Enabled() bool { return d.Host != "" && d.DBName != "" }

type Certs struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type SheetConfig struct {
	RosterCSVURL   string `yaml:"roster_csv_url"`
	ProxyURL       string `yaml:"proxy_url"`
	WebAppURL      string `yaml:"webapp_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RefreshSeconds int    `yaml:"refresh_seconds"`
	RosterTTL      int    `yaml:"roster_ttl_seconds"`
}

type SchoolConfig struct {
	Name         string  `yaml:"name"`
	Timezone     string  `yaml:"timezone"`
	Latitude     float64 `yaml:"latitude"`
	Longitude    float64 `yaml:"longitude"`
	RadiusMeters float64 `yaml:"radius_meters"`
}

// ScheduleConfig holds "HH:MM" clock times in school-local time.
type ScheduleConfig struct {
	LateAfter         string `yaml:"late_after"`
	DepartureDefault  string `yaml:"departure_default"`
	DepartureThursday string `yaml:"departure_thursday"`
	DepartureFriday   string `yaml:"departure_friday"`
}

type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`
}

type Config struct {
	Version     string         `yaml:"version"`
	Mode        string         `yaml:"mode"`
	Addr        string         `yaml:"addr"`
	DB          DatabaseConfig `yaml:"database"`
	Certificate Certs          `yaml:"certificate"`
	Sheet       SheetConfig    `yaml:"sheet"`
	School      SchoolConfig   `yaml:"school"`
	Schedule    ScheduleConfig `yaml:"schedule"`
	Auth        AuthConfig     `yaml:"auth"`
}

// LoadConfig reads the YAML file at path, then lets a .env file and the
// process environment override secrets and endpoints.
func LoadConfig(path string) (*Config, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(buf)
	if err != nil {
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML and fills defaults. Environment overrides are not applied.
func Parse(buf []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "dev"
	}
	if c.Addr == "" {
		c.Addr = ":8443"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.Sheet.ProxyURL == "" {
		c.Sheet.ProxyURL = "https://api.allorigins.win/raw"
	}
	if c.Sheet.TimeoutSeconds <= 0 {
		c.Sheet.TimeoutSeconds = 15
	}
	if c.Sheet.RefreshSeconds <= 0 {
		c.Sheet.RefreshSeconds = 60
	}
	if c.Sheet.RosterTTL <= 0 {
		c.Sheet.RosterTTL = 300
	}
	if c.School.Name == "" {
		c.School.Name = "SMPN 1 Padarincang"
	}
	if c.School.Timezone == "" {
		c.School.Timezone = "Asia/Jakarta"
	}
	if c.School.Latitude == 0 && c.School.Longitude == 0 {
		c.School.Latitude = -6.114196248039071
		c.School.Longitude = 106.2276108127061
	}
	if c.School.RadiusMeters <= 0 {
		c.School.RadiusMeters = 50
	}
	if c.Schedule.LateAfter == "" {
		c.Schedule.LateAfter = "07:30"
	}
	if c.Schedule.DepartureDefault == "" {
		c.Schedule.DepartureDefault = "14:45"
	}
	if c.Schedule.DepartureThursday == "" {
		c.Schedule.DepartureThursday = "14:10"
	}
	if c.Schedule.DepartureFriday == "" {
		c.Schedule.DepartureFriday = "11:00"
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = 24
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		c.Addr = ":" + v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
	if v := os.Getenv("SHEET_WEBAPP_URL"); v != "" {
		c.Sheet.WebAppURL = v
	}
	if v := os.Getenv("SHEET_ROSTER_CSV_URL"); v != "" {
		c.Sheet.RosterCSVURL = v
	}
	if v := os.Getenv("SCHOOL_RADIUS_METERS"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil && r > 0 {
			c.School.RadiusMeters = r
		}
	}
}

func (c *Config) Validate() error {
	if c.Mode != "dev" && c.Mode != "release" {
		return fmt.Errorf("mode must be dev or release, got %q", c.Mode)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (or JWT_SECRET) is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the school's time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.School.Timezone)
	if err != nil {
		return nil, fmt.Errorf("school.timezone: %w", err)
	}
	return loc, nil
}

func (c *Config) SheetTimeout() time.Duration {
	return time.Duration(c.Sheet.TimeoutSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Sheet.RefreshSeconds) * time.Second
}

func (c *Config) RosterTTL() time.Duration {
	return time.Duration(c.Sheet.RosterTTL) * time.Second
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}
