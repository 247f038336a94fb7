package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	LogLevel      string
	LogFormat     string // "json" or "console"
	DBPath        string // badger history store
	ResultsDir    string
	PreviewLimit  int
	MaxReturnRows int
	SQLServer     SQLServerConfig
	Ollama        OllamaConfig
	Agents        AgentsConfig
	Sanitize      SanitizeConfig
}

type SQLServerConfig struct {
	Server   string
	Port     string
	Database string
	UserID   string
	Password string
	Encrypt  bool
}

type OllamaConfig struct {
	BaseURL       string
	Model         string
	Temperature   float64
	NumPredict    int
	NumCtx        int
	TopK          int
	TopP          float64
	RepeatPenalty float64
	Timeout       time.Duration
	KeepAlive     string
}

type AgentsConfig struct {
	CallTimeout  time.Duration
	HardDeadline time.Duration
}

type SanitizeConfig struct {
	FuzzyCutoff float64
	TopDefault  int
}

func GetConfig() Config {
	// Optional .env, same precedence as the original deployment: real env wins.
	_ = godotenv.Load()

	return Config{
		Port:          getEnv("PORT", "8000"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		DBPath:        getEnv("DB_PATH", "./data/badger"),
		ResultsDir:    getEnv("RESULTS_DIR", "./results"),
		PreviewLimit:  getEnvInt("PREVIEW_LIMIT", 200),
		MaxReturnRows: getEnvInt("MAX_RETURN_ROWS", 500),
		SQLServer: SQLServerConfig{
			Server:   getEnv("SQL_SERVER", "localhost"),
			Port:     getEnv("SQL_PORT", "1433"),
			Database: getEnv("SQL_DATABASE", "PharmacyDB"),
			UserID:   getEnv("SQL_USER", ""),
			Password: getEnv("SQL_PASSWORD", ""),
			Encrypt:  getEnv("SQL_ENCRYPT", "true") == "true",
		},
		Ollama: OllamaConfig{
			BaseURL:       getEnv("OLLAMA_BASE_URL", "http://127.0.0.1:11434"),
			Model:         getEnv("OLLAMA_MODEL", "qwen2.5-coder:latest"),
			Temperature:   getEnvFloat("OLLAMA_TEMPERATURE", 0.0),
			NumPredict:    getEnvInt("OLLAMA_NUM_PREDICT", 96),
			NumCtx:        getEnvInt("OLLAMA_NUM_CTX", 1024),
			TopK:          getEnvInt("OLLAMA_TOP_K", 20),
			TopP:          getEnvFloat("OLLAMA_TOP_P", 0.9),
			RepeatPenalty: getEnvFloat("OLLAMA_REPEAT_PENALTY", 1.1),
			Timeout:       getEnvDuration("OLLAMA_TIMEOUT", 30*time.Second),
			KeepAlive:     getEnv("OLLAMA_KEEP_ALIVE", "15m"),
		},
		Agents: AgentsConfig{
			CallTimeout:  getEnvDuration("OLLAMA_AGENT_TIMEOUT", 8*time.Second),
			HardDeadline: getEnvDuration("AGENTS_HARD_DEADLINE", 14*time.Second),
		},
		Sanitize: SanitizeConfig{
			FuzzyCutoff: getEnvFloat("SANITIZE_FUZZY_CUTOFF", 0.65),
			TopDefault:  getEnvInt("SANITIZE_TOP_DEFAULT", 200),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		return ParseDuration(value, defaultValue)
	}
	return defaultValue
}

var durationRx = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)(ms|s|m|h)$`)

// ParseDuration accepts "500ms", "30s", "10m", "1h" and bare numerics, which
// are interpreted as seconds.
func ParseDuration(s string, defaultValue time.Duration) time.Duration {
	s = trimQuotes(s)
	if s == "" {
		return defaultValue
	}
	if m := durationRx.FindStringSubmatch(s); m != nil {
		num, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return defaultValue
		}
		switch strings.ToLower(m[2]) {
		case "ms":
			return time.Duration(num * float64(time.Millisecond))
		case "s":
			return time.Duration(num * float64(time.Second))
		case "m":
			return time.Duration(num * float64(time.Minute))
		case "h":
			return time.Duration(num * float64(time.Hour))
		}
	}
	if num, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(num * float64(time.Second))
	}
	return defaultValue
}

func trimQuotes(s string) string {
	for len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		s = s[1 : len(s)-1]
	}
	return s
}
