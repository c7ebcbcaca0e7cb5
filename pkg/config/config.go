package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Sheets   SheetsConfig   `yaml:"sheets"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
	Env  string `yaml:"env"`
}

type DatabaseConfig struct {
	Type string `yaml:"type"` // "sqlite" or "postgres"
	DSN  string `yaml:"dsn"`
	Path string `yaml:"path"` // For SQLite: file path
}

// SheetsConfig controls the optional Google Sheets mirror. When disabled the
// service runs entirely against the local database and the spreadsheet URL
// endpoint reports the link as absent.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CredentialsFile string `yaml:"credentials_file"`
	AdminEmail      string `yaml:"admin_email"`
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dbType := getEnv("DB_TYPE", "sqlite") // Default to SQLite for development
	dsn, dbPath := buildDSN(dbType)

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Type: dbType,
			DSN:  dsn,
			Path: dbPath,
		},
		Sheets: SheetsConfig{
			Enabled:         getEnv("SHEETS_ENABLED", "false") == "true",
			CredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", "credentials.json"),
			AdminEmail:      getEnv("SHEETS_ADMIN_EMAIL", ""),
		},
	}

	// An optional YAML file overrides the environment-derived defaults
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := applyFile(cfg, path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func buildDSN(dbType string) (string, string) {
	if dbType == "postgres" {
		// PostgreSQL configuration
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "diligence_tracker")
		sslMode := getEnv("DB_SSLMODE", "disable")

		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			dbHost, dbPort, dbUser, dbPassword, dbName, sslMode,
		)
		return dsn, ""
	}

	// SQLite configuration (default for development)
	dbPath := getEnv("SQLITE_PATH", "./data/diligence_tracker.db")
	dsn := dbPath + "?mode=rwc&cache=shared&timeout=5000"
	return dsn, dbPath
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
