package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string `yaml:"env" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Redis      `yaml:"redis"`
	Email      `yaml:"email"`
	Auth       `yaml:"auth"`
	Admin      `yaml:"admin"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Redis struct {
	Addr     string `yaml:"addr" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int    `yaml:"db" env-default:"0"`
}

// Email selects the outbound transport: "queue" publishes to RabbitMQ for
// the mail worker, "smtp" dials directly, "log" suppresses sends.
type Email struct {
	Transport string `yaml:"transport" env-default:"log"`
	SMTP      `yaml:"smtp"`
	RabbitMQ  `yaml:"rabbitmq"`
}

type SMTP struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME" env-default:""`
	Password string `yaml:"password" env:"SMTP_PASSWORD" env-default:""`
	From     string `yaml:"from" env-default:""`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-default:""`
	QueueName string `yaml:"queue_name" env-default:"emails"`
}

type Auth struct {
	VerificationCodeTTL time.Duration `yaml:"verification_code_ttl" env-default:"30m"`
	ResetCodeTTL        time.Duration `yaml:"reset_code_ttl" env-default:"15m"`
	SessionTTL          time.Duration `yaml:"session_ttl" env-default:"168h"`
}

type Admin struct {
	Email    string `yaml:"email" env:"ADMIN_EMAIL" env-default:"admin@crownheightsgroups.com"`
	Password string `yaml:"password" env:"ADMIN_PASSWORD" env-required:"true"`
}

func MustLoad(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist" + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config" + err.Error())
	}

	return &cfg
}
