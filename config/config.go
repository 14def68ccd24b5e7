package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Paths     PathsConfig
	Database  DatabaseConfig
	Scheduler SchedulerConfig
	Server    ServerConfig
	S3        S3Config
	Feed      FeedConfig
	LogLevel  string
}

type PathsConfig struct {
	InputDir      string
	OutputFile    string
	CombineLog    string
	DaemonLog     string
	ProcessedDir  string
	MoveProcessed bool
}

type DatabaseConfig struct {
	Driver string
	Path   string
	URL    string
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type ServerConfig struct {
	Addr string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	OutputKey       string
}

// FeedConfig describes the shape of the input documents and of the merged output.
type FeedConfig struct {
	Container        string   `yaml:"container"`
	Listing          string   `yaml:"listing"`
	OutputRoot       string   `yaml:"output_root"`
	Extension        string   `yaml:"extension"`
	SiteDirectionKey string   `yaml:"site_direction_key"`
	PhoneTypes       []string `yaml:"phone_types"`
}

// DefaultFeedConfig is the REAXML layout.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Container:        "propertyList",
		Listing:          "residential",
		OutputRoot:       "residentials",
		Extension:        ".xml",
		SiteDirectionKey: "streetAddress",
		PhoneTypes:       []string{"mobile", "BH"},
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Paths: PathsConfig{
			InputDir:      getEnv("INPUT_DIR", "input"),
			OutputFile:    getEnv("OUTPUT_FILE", "output/residentials.xml"),
			CombineLog:    getEnv("COMBINE_LOG", "logs/combine.log"),
			DaemonLog:     getEnv("DAEMON_LOG", "daemon.log"),
			ProcessedDir:  getEnv("PROCESSED_DIR", "processed"),
			MoveProcessed: getEnvBool("MOVE_PROCESSED", false),
		},
		Database: DatabaseConfig{
			Driver: getEnv("DB_DRIVER", "sqlite3"),
			Path:   getEnv("DB_PATH", "database/properties.db"),
			URL:    os.Getenv("DATABASE_URL"),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("COMBINE_CRON"),
		},
		Server: ServerConfig{
			Addr: getEnv("HTTP_ADDR", ":3000"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			OutputKey:       getEnv("S3_OUTPUT_KEY", "feeds/residentials.xml"),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if interval := os.Getenv("COMBINE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err != nil {
			return nil, fmt.Errorf("parse COMBINE_INTERVAL: %w", err)
		}
		cfg.Scheduler.Interval = d
	}

	feed, err := LoadFeedConfig(getEnv("FEED_CONFIG", "config/feed.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Feed = feed

	return cfg, nil
}

// LoadFeedConfig reads the YAML feed layout at path. A missing file yields the
// defaults; keys left out of the file keep their default values.
func LoadFeedConfig(path string) (FeedConfig, error) {
	feed := DefaultFeedConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return feed, nil
		}
		return feed, fmt.Errorf("read feed config: %w", err)
	}

	if err := yaml.Unmarshal(data, &feed); err != nil {
		return feed, fmt.Errorf("parse feed config %s: %w", path, err)
	}
	if feed.Extension != "" && feed.Extension[0] != '.' {
		feed.Extension = "." + feed.Extension
	}

	return feed, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
