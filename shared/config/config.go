package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	HttpAddr       string        `yaml:"http_addr" validate:"required"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
	TimeZone       string        `yaml:"time_zone" validate:"required"` // region time zone used for date buckets
	EventsPerPage  int           `yaml:"events_per_page" validate:"required,min=1,max=200"`
	JwtTTL         time.Duration `yaml:"jwt_ttl" validate:"required"`
	SecureCookies  bool          `yaml:"secure_cookies"`
	AllowedOrigins []string      `yaml:"allowed_origins"`

	Notifications Notifications `yaml:"notifications"`
	RateLimits    RateLimits    `yaml:"rate_limits"`
}

type Notifications struct {
	QueueSize int `yaml:"queue_size" validate:"required,min=1"`
	Workers   int `yaml:"workers" validate:"required,min=1"`
}

// RateLimits are per user, in requests per second with a burst of Burst.
type RateLimits struct {
	ApplyPerSecond   float64 `yaml:"apply_per_second"`
	MessagePerSecond float64 `yaml:"message_per_second"`
	Burst            float64 `yaml:"burst"`
}

type Private struct {
	Pg     Pg     `yaml:"pg" validate:"required"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
	Email  Email  `yaml:"email"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password" validate:"required"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

// Email configures the SMTP relay that receives notification events.
// An empty SMTPServer disables the relay sink.
type Email struct {
	SMTPServer   string `yaml:"smtp_server"`
	SMTPPort     int    `yaml:"smtp_port"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	SenderName   string `yaml:"sender_name"`
	RelayMailbox string `yaml:"relay_mailbox"`
	Timeout      int    `yaml:"timeout"` // seconds
}

func (c *Config) JwtKey() string {
	return c.Private.JwtKey
}

func (c *Config) JwtTTL() time.Duration {
	return c.Public.JwtTTL
}

// Location returns the region time zone, falling back to UTC.
func (p *Public) Location() *time.Location {
	loc, err := time.LoadLocation(p.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(output); err != nil {
		panic(fmt.Sprintf("invalid config %s: %v", configPath, err))
	}
}

func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)
	if _, err := time.LoadLocation(public.TimeZone); err != nil {
		panic(fmt.Sprintf("unknown time_zone %q: %v", public.TimeZone, err))
	}

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	return &Config{Public: public, Private: private}
}
