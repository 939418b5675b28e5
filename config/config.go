package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	TargetPath    string
	RootURL       string
	StartFrom     string
	DayCount      int
	Overwrite     bool
	CreateMissing bool
	Ignore        []string
	Retries       int

	WifiSSID  string
	WifiPSK   string
	WifiDelay int

	// S3 backup target
	ApiURL     string
	AccessKey  string
	SecretKey  string
	BucketName string
	Region     string
}

const (
	defaultRootURL = "http://192.168.4.1/dir?dir=A:"

	// factory defaults of the card, changeable in ezshare.cfg on the card
	defaultSSID = "ez Share"
	defaultPSK  = "88888888"
)

// Load reads configuration from the first env file found in the search
// order, then from environment variables. CLI flags override on top.
func Load() (*Config, error) {
	loadEnvFile()

	config := &Config{
		TargetPath:    getEnv("EZSYNC_PATH", defaultTargetPath()),
		RootURL:       getEnv("EZSYNC_URL", defaultRootURL),
		StartFrom:     getEnv("EZSYNC_START_FROM", ""),
		DayCount:      getEnvInt("EZSYNC_DAYS", 0),
		Overwrite:     getEnvBool("EZSYNC_OVERWRITE", false),
		CreateMissing: getEnvBool("EZSYNC_CREATE_MISSING", false),
		Ignore:        getEnvList("EZSYNC_IGNORE"),
		Retries:       getEnvInt("EZSYNC_RETRIES", 3),
		WifiSSID:      getEnv("EZSYNC_SSID", defaultSSID),
		WifiPSK:       getEnv("EZSYNC_PSK", defaultPSK),
		WifiDelay:     getEnvInt("EZSYNC_WIFI_DELAY", 5),
		ApiURL:        getEnv("API_URL", ""),
		AccessKey:     getEnv("ACCESS_KEY", ""),
		SecretKey:     getEnv("SECRET_KEY", ""),
		BucketName:    getEnv("BUCKET_NAME", ""),
		Region:        getEnv("REGION", ""),
	}

	return config, nil
}

func loadEnvFile() {
	for _, path := range envFileSearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			slog.Warn("failed to load env file", "path", path, "error", err)
		}
		return
	}
}

func envFileSearchPaths() []string {
	paths := []string{"ezsync.env", ".env"}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "ezsync", "ezsync.env"))
	}
	return paths
}

func defaultTargetPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("CPAP_Data", "SD_card")
	}
	return filepath.Join(home, "Documents", "CPAP_Data", "SD_card")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("ignoring non-numeric env value", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		slog.Warn("ignoring non-boolean env value", "key", key, "value", value)
		return defaultValue
	}
	return b
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
