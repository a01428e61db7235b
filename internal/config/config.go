package config

import (
	"flag"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string
	Env  string

	// DataDir holds the JSON file stores when no Postgres DSN is set.
	DataDir string

	LLM     LLMConfig
	Coach   CoachConfig
	Lexicon LexiconConfig
}

type LLMConfig struct {
	// Backend picks the reply generator: "gemini", "groq", or "fake".
	Backend string
	Model   string
	APIKey  string
}

type CoachConfig struct {
	CompletenessThreshold int
	MinutesPerTurn        float64
	HistoryWindow         int
}

type LexiconConfig struct {
	// Path points at a local lexicon file; takes priority over S3.
	Path string

	S3Enabled   bool
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Object    string
	S3UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8080", "server port")
	dataDir := flag.String("data-dir", "data", "directory for file-backed stores")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:    *port,
		Env:     env,
		DataDir: firstNonEmpty(strings.TrimSpace(os.Getenv("DATA_DIR")), *dataDir),
		LLM:     loadLLMConfig(),
		Coach:   loadCoachConfig(),
		Lexicon: loadLexiconConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_BACKEND")))
	if backend == "" {
		if strings.TrimSpace(os.Getenv("GROQ_API_KEY")) != "" {
			backend = "groq"
		} else {
			backend = "gemini"
		}
	}
	return LLMConfig{
		Backend: backend,
		Model:   strings.TrimSpace(os.Getenv("LLM_MODEL")),
		APIKey: firstNonEmpty(
			strings.TrimSpace(os.Getenv("LLM_API_KEY")),
			strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
			strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		),
	}
}

func loadCoachConfig() CoachConfig {
	return CoachConfig{
		CompletenessThreshold: intEnv("COACH_COMPLETENESS_THRESHOLD", 0),
		MinutesPerTurn:        floatEnv("COACH_MINUTES_PER_TURN", 0),
		HistoryWindow:         intEnv("COACH_HISTORY_WINDOW", 0),
	}
}

func loadLexiconConfig(env string) LexiconConfig {
	endpoint := resolveLexiconEndpoint(env)
	return LexiconConfig{
		Path:        strings.TrimSpace(os.Getenv("CRISIS_LEXICON_PATH")),
		S3Enabled:   endpoint != "",
		S3Endpoint:  endpoint,
		S3Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("LEXICON_S3_REGION")), "us-east-1"),
		S3AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("LEXICON_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		S3SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("LEXICON_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		S3Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("LEXICON_S3_BUCKET")), "parentcoach-safety"),
		S3Object:    firstNonEmpty(strings.TrimSpace(os.Getenv("LEXICON_S3_OBJECT")), "crisis-lexicon.json"),
		S3UseSSL:    resolveLexiconUseSSL(env),
	}
}

func resolveLexiconEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("LEXICON_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("LEXICON_S3_ENDPOINT"))
}

func resolveLexiconUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("LEXICON_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func intEnv(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func floatEnv(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
