package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Host          string
	Port          string
	AllowedOrigin string
	// Debug forces debug-level console logging.
	Debug         bool

	Log     LogConfig
	LLM     LLMConfig
	Session SessionConfig
	Leads   LeadsConfig
	Notify  NotifyConfig
	Widget  WidgetConfig

	// AnalyticsDSN points the funnel at a SQLite file; empty keeps it in memory.
	AnalyticsDSN string

	// DefaultIndustry is used for new sessions whose requested industry is
	// missing or unknown.
	DefaultIndustry string
}

type LogConfig struct {
	Level  string
	Format string
}

type LLMConfig struct {
	Provider        string // gemini | openai | static
	GeminiAPIKey    string
	OpenAIAPIKey    string
	Model           string
	Temperature     float32
	MaxOutputTokens int
	PromptFile      string
	Timeout         time.Duration
	// Content-safety thresholds keyed by harm category.
	SafetyThresholds map[string]string
}

type SessionConfig struct {
	Backend       string // memory | redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

type LeadsConfig struct {
	Sink        string // firestore | postgres | sqlite | elasticsearch | memory
	Collection  string
	Timeout     time.Duration
	Firestore   FirestoreConfig
	DatabaseURL string
	SQLiteDSN   string
	Elastic     ElasticConfig
}

type FirestoreConfig struct {
	ProjectID       string
	CredentialsPath string
}

type ElasticConfig struct {
	Addresses []string
	Username  string
	Password  string
	Index     string
}

type NotifyConfig struct {
	AWSRegion   string
	SNSTopicARN string
	EmailFrom   string
	EmailTo     []string
}

// Enabled reports whether any new-lead notification channel is configured.
func (n NotifyConfig) Enabled() bool {
	return n.SNSTopicARN != "" || (n.EmailFrom != "" && len(n.EmailTo) > 0)
}

type WidgetConfig struct {
	BotName         string
	WelcomeMessage  string
	FallbackMessage string
}

// Harm categories accepted in LLMConfig.SafetyThresholds.
const (
	HarmHateSpeech       = "HARM_CATEGORY_HATE_SPEECH"
	HarmDangerousContent = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmHarassment       = "HARM_CATEGORY_HARASSMENT"
	HarmSexuallyExplicit = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
)

var harmCategories = []string{HarmHateSpeech, HarmDangerousContent, HarmHarassment, HarmSexuallyExplicit}

// Load reads .env, an optional config.yaml and the process environment.
// Environment variables win over the file.
func Load() Config {
	_ = godotenv.Load()
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	_ = v.ReadInConfig()
	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	setDefaults(v)
	v.AutomaticEnv()

	geminiKey := v.GetString("GEMINI_API_KEY")
	if geminiKey == "" {
		geminiKey = v.GetString("GOOGLE_API_KEY")
	}

	cfg := Config{
		Host:          v.GetString("HOST"),
		Port:          v.GetString("PORT"),
		AllowedOrigin: v.GetString("ALLOWED_ORIGIN"),
		Debug:         v.GetBool("DEBUG"),
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		LLM: LLMConfig{
			Provider:         strings.ToLower(v.GetString("LLM_PROVIDER")),
			GeminiAPIKey:     geminiKey,
			OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
			Model:            v.GetString("AI_MODEL_NAME"),
			Temperature:      float32(v.GetFloat64("AI_TEMPERATURE")),
			MaxOutputTokens:  v.GetInt("AI_MAX_OUTPUT_TOKENS"),
			PromptFile:       v.GetString("PROMPT_FILE"),
			Timeout:          v.GetDuration("LLM_TIMEOUT"),
			SafetyThresholds: make(map[string]string, len(harmCategories)),
		},
		Session: SessionConfig{
			Backend:       strings.ToLower(v.GetString("SESSION_BACKEND")),
			RedisAddr:     v.GetString("REDIS_ADDR"),
			RedisPassword: v.GetString("REDIS_PASSWORD"),
			RedisDB:       v.GetInt("REDIS_DB"),
			TTL:           v.GetDuration("SESSION_TTL"),
		},
		Leads: LeadsConfig{
			Sink:       strings.ToLower(v.GetString("LEAD_SINK")),
			Collection: v.GetString("LEADS_COLLECTION"),
			Timeout:    v.GetDuration("SINK_TIMEOUT"),
			Firestore: FirestoreConfig{
				ProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
				CredentialsPath: v.GetString("FIREBASE_CREDENTIALS_PATH"),
			},
			DatabaseURL: v.GetString("DB_URL"),
			SQLiteDSN:   v.GetString("LEADS_SQLITE_DSN"),
			Elastic: ElasticConfig{
				Addresses: splitList(v.GetString("ELASTICSEARCH_ADDRESSES")),
				Username:  v.GetString("ELASTICSEARCH_USERNAME"),
				Password:  v.GetString("ELASTICSEARCH_PASSWORD"),
				Index:     v.GetString("ELASTICSEARCH_INDEX"),
			},
		},
		Notify: NotifyConfig{
			AWSRegion:   v.GetString("AWS_REGION"),
			SNSTopicARN: v.GetString("NOTIFY_SNS_TOPIC_ARN"),
			EmailFrom:   v.GetString("NOTIFY_EMAIL_FROM"),
			EmailTo:     splitList(v.GetString("NOTIFY_EMAIL_TO")),
		},
		Widget: WidgetConfig{
			BotName:         v.GetString("BOT_NAME"),
			WelcomeMessage:  v.GetString("WELCOME_MESSAGE"),
			FallbackMessage: v.GetString("FALLBACK_MESSAGE"),
		},
		AnalyticsDSN:    v.GetString("ANALYTICS_SQLITE_DSN"),
		DefaultIndustry: v.GetString("DEFAULT_INDUSTRY"),
	}
	for _, c := range harmCategories {
		cfg.LLM.SafetyThresholds[c] = v.GetString(c + "_THRESHOLD")
	}
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = defaultProvider(cfg.LLM)
	}
	// DEBUG switches to verbose console logs regardless of LOG_LEVEL/LOG_FORMAT.
	if cfg.Debug {
		cfg.Log.Level = "debug"
		cfg.Log.Format = "console"
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8000")
	v.SetDefault("ALLOWED_ORIGIN", "*")
	v.SetDefault("DEBUG", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LLM_PROVIDER", "")
	v.SetDefault("AI_MODEL_NAME", "gemini-2.5-flash")
	v.SetDefault("AI_TEMPERATURE", 0.7)
	v.SetDefault("AI_MAX_OUTPUT_TOKENS", 1000)
	v.SetDefault("PROMPT_FILE", "./prompts/assistant.yaml")
	v.SetDefault("LLM_TIMEOUT", 20*time.Second)
	for _, c := range harmCategories {
		v.SetDefault(c+"_THRESHOLD", "BLOCK_MEDIUM_AND_ABOVE")
	}
	v.SetDefault("SESSION_BACKEND", "memory")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SESSION_TTL", 0)
	v.SetDefault("LEAD_SINK", "firestore")
	v.SetDefault("LEADS_COLLECTION", "leads")
	v.SetDefault("SINK_TIMEOUT", 10*time.Second)
	v.SetDefault("FIREBASE_CREDENTIALS_PATH", "serviceAccountKey.json")
	v.SetDefault("LEADS_SQLITE_DSN", "leads.db")
	v.SetDefault("ELASTICSEARCH_INDEX", "leads")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("BOT_NAME", "AI Assistant")
	v.SetDefault("WELCOME_MESSAGE", "Hi, I'm your AI assistant. How can I help you today?")
	v.SetDefault("FALLBACK_MESSAGE", "I'm not sure about that, but we will notify our team to get back to you")
	v.SetDefault("ANALYTICS_SQLITE_DSN", "")
	v.SetDefault("DEFAULT_INDUSTRY", "hotel")
}

// Without an explicit provider, pick whichever API key is present.
func defaultProvider(c LLMConfig) string {
	switch {
	case c.GeminiAPIKey != "":
		return "gemini"
	case c.OpenAIAPIKey != "":
		return "openai"
	}
	return "static"
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
