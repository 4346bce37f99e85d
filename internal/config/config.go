package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Batch struct {
		Workers              int `yaml:"workers"`
		EngineTimeoutSeconds int `yaml:"engineTimeoutSeconds"`
		MaxUploadMB          int `yaml:"maxUploadMB"`
	} `yaml:"batch"`

	Database struct {
		Driver     string `yaml:"driver"` // mysql | postgres | sqlite
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		User       string `yaml:"user"`
		Password   string `yaml:"password"`
		Name       string `yaml:"name"`
		SQLitePath string `yaml:"sqlitePath"`
	} `yaml:"database"`

	Archive struct {
		Backend  string `yaml:"backend"` // local | minio
		LocalDir string `yaml:"localDir"`
	} `yaml:"archive"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Engine struct {
		OpenAIAPIKey string `yaml:"openaiApiKey"`
		Model        string `yaml:"model"`
	} `yaml:"engine"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`
}

// Load reads the YAML config file and applies env overrides for
// secrets so they can stay out of the file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.Engine.OpenAIAPIKey = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.Minio.SecretKey = v
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Batch.Workers == 0 {
		c.Batch.Workers = 4
	}
	if c.Batch.EngineTimeoutSeconds == 0 {
		c.Batch.EngineTimeoutSeconds = 30
	}
	if c.Batch.MaxUploadMB == 0 {
		c.Batch.MaxUploadMB = 32
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "leafscan.db"
	}
	if c.Archive.Backend == "" {
		c.Archive.Backend = "local"
	}
	if c.Archive.LocalDir == "" {
		c.Archive.LocalDir = "images"
	}
	if c.Engine.Model == "" {
		c.Engine.Model = "gpt-4o"
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	switch c.Archive.Backend {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported archive backend: %s", c.Archive.Backend)
	}
	return nil
}

// EngineTimeout as a duration.
func (c *Config) EngineTimeout() time.Duration {
	return time.Duration(c.Batch.EngineTimeoutSeconds) * time.Second
}

// MaxUploadSize in bytes.
func (c *Config) MaxUploadSize() int64 {
	return int64(c.Batch.MaxUploadMB) << 20
}

// MySQLDSN builds the MySQL connection string.
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// PostgresDSN builds the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}
