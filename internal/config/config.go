package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Batch    BatchConfig    `mapstructure:"batch"`
}

type ServerConfig struct {
	Port         int             `mapstructure:"port"`
	ReadTimeout  time.Duration   `mapstructure:"readTimeout"`
	WriteTimeout time.Duration   `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration   `mapstructure:"idleTimeout"`
	RateLimit    RateLimitConfig `mapstructure:"rateLimit"`
	Auth         AuthConfig      `mapstructure:"auth"`
}

type RateLimitConfig struct {
	Enabled bool    `mapstructure:"enabled"`
	RPS     float64 `mapstructure:"rps"`
	Burst   int     `mapstructure:"burst"`
}

type AuthConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	JWTSecret string        `mapstructure:"jwtSecret"`
	TokenTTL  time.Duration `mapstructure:"tokenTTL"`
}

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
)

// StorageConfig selects the backend and locates the flat files that back the
// library when Driver is "file".
type StorageConfig struct {
	Driver         string `mapstructure:"driver"`
	DataDir        string `mapstructure:"dataDir"`
	BooksFile      string `mapstructure:"booksFile"`
	CDsFile        string `mapstructure:"cdsFile"`
	UsersFile      string `mapstructure:"usersFile"`
	LoansFile      string `mapstructure:"loansFile"`
	CDLoansFile    string `mapstructure:"cdLoansFile"`
	LibrariansFile string `mapstructure:"librariansFile"`
	AdminsFile     string `mapstructure:"adminsFile"`
}

type DatabaseConfig struct {
	URL            string        `mapstructure:"url"`
	MaxConns       int32         `mapstructure:"maxConns"`
	ConnectTimeout time.Duration `mapstructure:"connectTimeout"`
}

type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
}

type MetricsConfig struct {
	Port int    `mapstructure:"port"`
	Path string `mapstructure:"path"`
}

type RabbitMQConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	ExchangeName string `mapstructure:"exchangeName"`
	QueueName    string `mapstructure:"queueName"`
	ConsumerTag  string `mapstructure:"consumerTag"`
}

type BatchConfig struct {
	ReminderSchedule string        `mapstructure:"reminderSchedule"`
	ReminderTimeout  time.Duration `mapstructure:"reminderTimeout"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 15*time.Second)
	v.SetDefault("server.writeTimeout", 15*time.Second)
	v.SetDefault("server.idleTimeout", 60*time.Second)
	v.SetDefault("server.rateLimit.enabled", true)
	v.SetDefault("server.rateLimit.rps", 10)
	v.SetDefault("server.rateLimit.burst", 20)
	v.SetDefault("server.auth.enabled", true)
	v.SetDefault("server.auth.jwtSecret", "")
	v.SetDefault("server.auth.tokenTTL", 8*time.Hour)
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.dataDir", "data")
	v.SetDefault("storage.booksFile", "books.txt")
	v.SetDefault("storage.cdsFile", "cds.txt")
	v.SetDefault("storage.usersFile", "users.txt")
	v.SetDefault("storage.loansFile", "loans.txt")
	v.SetDefault("storage.cdLoansFile", "cd_loans.txt")
	v.SetDefault("storage.librariansFile", "librarians.txt")
	v.SetDefault("storage.adminsFile", "admins.txt")
	v.SetDefault("database.url", "")
	v.SetDefault("database.maxConns", 10)
	v.SetDefault("database.connectTimeout", "5s")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("rabbitmq.enabled", false)
	v.SetDefault("rabbitmq.host", "localhost")
	v.SetDefault("rabbitmq.port", 5672)
	v.SetDefault("rabbitmq.username", "guest")
	v.SetDefault("rabbitmq.password", "guest")
	v.SetDefault("rabbitmq.exchangeName", "library-engine")
	v.SetDefault("rabbitmq.queueName", "library-reminders")
	v.SetDefault("rabbitmq.consumerTag", "library-engine-reminders")
	v.SetDefault("batch.reminderSchedule", "0 8 * * *")
	v.SetDefault("batch.reminderTimeout", 10*time.Minute)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("Config file not found, using defaults and environment variables.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
