package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server       Server
	Database     Database
	Session      Session
	GeminiApiKey string
	OpenAIApiKey string

	JudgeTimeoutSeconds         int
	IntentTimeoutSeconds        int
	TranscriptionTimeoutSeconds int
	SynthesisTimeoutSeconds     int
	TranslationTimeoutSeconds   int
	TTSCacheMaxMB               int
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type Session struct {
	DefaultTTLMinutes int
	SlidingTTL        bool
	LockWaitMillis    int
	SweepSeconds      int
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SESSION_TTL_MINUTES", 30)
	viper.SetDefault("SESSION_SLIDING_TTL", true)
	viper.SetDefault("SESSION_LOCK_WAIT_MS", 2000)
	viper.SetDefault("SESSION_SWEEP_SECONDS", 300)
	viper.SetDefault("JUDGE_TIMEOUT_SECONDS", 10)
	viper.SetDefault("INTENT_TIMEOUT_SECONDS", 8)
	viper.SetDefault("TRANSCRIPTION_TIMEOUT_SECONDS", 30)
	viper.SetDefault("SYNTHESIS_TIMEOUT_SECONDS", 15)
	viper.SetDefault("TRANSLATION_TIMEOUT_SECONDS", 8)
	viper.SetDefault("TTS_CACHE_MAX_MB", 100)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.OpenAIApiKey = viper.GetString("OPENAI_API_KEY")

	config.Session.DefaultTTLMinutes = viper.GetInt("SESSION_TTL_MINUTES")
	config.Session.SlidingTTL = viper.GetBool("SESSION_SLIDING_TTL")
	config.Session.LockWaitMillis = viper.GetInt("SESSION_LOCK_WAIT_MS")
	config.Session.SweepSeconds = viper.GetInt("SESSION_SWEEP_SECONDS")

	config.JudgeTimeoutSeconds = viper.GetInt("JUDGE_TIMEOUT_SECONDS")
	config.IntentTimeoutSeconds = viper.GetInt("INTENT_TIMEOUT_SECONDS")
	config.TranscriptionTimeoutSeconds = viper.GetInt("TRANSCRIPTION_TIMEOUT_SECONDS")
	config.SynthesisTimeoutSeconds = viper.GetInt("SYNTHESIS_TIMEOUT_SECONDS")
	config.TranslationTimeoutSeconds = viper.GetInt("TRANSLATION_TIMEOUT_SECONDS")
	config.TTSCacheMaxMB = viper.GetInt("TTS_CACHE_MAX_MB")

	log.Info().Str("port", config.Server.Port).Msg("Config loaded")
	return &config, nil
}

func (c *Config) JudgeTimeout() time.Duration {
	return time.Duration(c.JudgeTimeoutSeconds) * time.Second
}

func (c *Config) IntentTimeout() time.Duration {
	return time.Duration(c.IntentTimeoutSeconds) * time.Second
}

func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.TranscriptionTimeoutSeconds) * time.Second
}

func (c *Config) SynthesisTimeout() time.Duration {
	return time.Duration(c.SynthesisTimeoutSeconds) * time.Second
}

func (c *Config) TranslationTimeout() time.Duration {
	return time.Duration(c.TranslationTimeoutSeconds) * time.Second
}

func (c *Config) SessionLockWait() time.Duration {
	return time.Duration(c.Session.LockWaitMillis) * time.Millisecond
}

func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.Session.SweepSeconds) * time.Second
}
