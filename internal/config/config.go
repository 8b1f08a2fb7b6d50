// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Sheets   SheetsConfig
	Planner  PlannerConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Enabled  bool
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// SheetsConfig identifies the backing spreadsheets. Each logical table lives
// in its own spreadsheet addressed by key, with a named worksheet inside it.
type SheetsConfig struct {
	CredentialsJSON string // service account credentials (raw JSON)

	IssuanceSpreadsheet    string
	IssuanceWorksheet      string
	StockSpreadsheet       string
	StockWorksheet         string
	DormantSpreadsheet     string
	DormantWorksheet       string
	ProportionsSpreadsheet string
	ProportionsWorksheet   string
	ExtrasSpreadsheet      string
	ExtrasWorksheet        string
	ProcurementSpreadsheet string
	ProcurementWorksheet   string

	OutputSpreadsheet  string
	HouseWorksheet     string
	StaffWorksheet     string
	ChemicalsWorksheet string

	RequestsPerSecond float64
}

type PlannerConfig struct {
	SafetyCushion float64
	MaxItems      int
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 600)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_ENABLED", false)
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "marketlist")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 1800)

		viper.SetDefault("SHEETS_ISSUANCE_WORKSHEET", "Issues")
		viper.SetDefault("SHEETS_STOCK_WORKSHEET", "My Stock")
		viper.SetDefault("SHEETS_DORMANT_WORKSHEET", "Dormant Stock")
		viper.SetDefault("SHEETS_PROPORTIONS_WORKSHEET", "Proportions")
		viper.SetDefault("SHEETS_EXTRAS_WORKSHEET", "Extras")
		viper.SetDefault("SHEETS_PROCUREMENT_WORKSHEET", "Purchases")
		viper.SetDefault("SHEETS_HOUSE_WORKSHEET", "Zeccol Mkl")
		viper.SetDefault("SHEETS_STAFF_WORKSHEET", "Staff Food")
		viper.SetDefault("SHEETS_CHEMICALS_WORKSHEET", "Chemicals & Detergents")
		viper.SetDefault("SHEETS_REQUESTS_PER_SECOND", 0.8)

		viper.SetDefault("PLANNER_SAFETY_CUSHION", 1.10)
		viper.SetDefault("PLANNER_MAX_ITEMS", 150)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Enabled:  viper.GetBool("DB_ENABLED"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Sheets: SheetsConfig{
				CredentialsJSON:        viper.GetString("GOOGLE_SHEETS_CREDENTIALS_JSON"),
				IssuanceSpreadsheet:    viper.GetString("SHEETS_ISSUANCE_SPREADSHEET"),
				IssuanceWorksheet:      viper.GetString("SHEETS_ISSUANCE_WORKSHEET"),
				StockSpreadsheet:       viper.GetString("SHEETS_STOCK_SPREADSHEET"),
				StockWorksheet:         viper.GetString("SHEETS_STOCK_WORKSHEET"),
				DormantSpreadsheet:     viper.GetString("SHEETS_DORMANT_SPREADSHEET"),
				DormantWorksheet:       viper.GetString("SHEETS_DORMANT_WORKSHEET"),
				ProportionsSpreadsheet: viper.GetString("SHEETS_PROPORTIONS_SPREADSHEET"),
				ProportionsWorksheet:   viper.GetString("SHEETS_PROPORTIONS_WORKSHEET"),
				ExtrasSpreadsheet:      viper.GetString("SHEETS_EXTRAS_SPREADSHEET"),
				ExtrasWorksheet:        viper.GetString("SHEETS_EXTRAS_WORKSHEET"),
				ProcurementSpreadsheet: viper.GetString("SHEETS_PROCUREMENT_SPREADSHEET"),
				ProcurementWorksheet:   viper.GetString("SHEETS_PROCUREMENT_WORKSHEET"),
				OutputSpreadsheet:      viper.GetString("SHEETS_OUTPUT_SPREADSHEET"),
				HouseWorksheet:         viper.GetString("SHEETS_HOUSE_WORKSHEET"),
				StaffWorksheet:         viper.GetString("SHEETS_STAFF_WORKSHEET"),
				ChemicalsWorksheet:     viper.GetString("SHEETS_CHEMICALS_WORKSHEET"),
				RequestsPerSecond:      viper.GetFloat64("SHEETS_REQUESTS_PER_SECOND"),
			},
			Planner: PlannerConfig{
				SafetyCushion: viper.GetFloat64("PLANNER_SAFETY_CUSHION"),
				MaxItems:      viper.GetInt("PLANNER_MAX_ITEMS"),
			},
		}
	})

	return instance
}
