package config

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfig wraps every configuration validation failure so callers can
// refuse to start rather than degrade at decision time.
var ErrConfig = fmt.Errorf("invalid configuration")

type Config struct {
	Server struct {
		Port     string
		LogLevel string
	}
	Engine struct {
		// IgnoreWords is the backchannel lexicon, CommandWords the command
		// lexicon. Env values are comma-separated and merged with the
		// built-in defaults unless ReplaceLexicons is set.
		IgnoreWords     []string
		CommandWords    []string
		ReplaceLexicons bool

		FuzzyThreshold   float64
		TranscriptWaitMs int
		TimeoutFallback  string // "interrupt" | "ignore"
		GuardMs          int
		MaxSpeechSeconds int
	}
	Worker struct {
		TokenSecret   string
		TokenSkewSecs int
		TokenExpMin   int
	}
}

// DefaultIgnoreWords and DefaultCommandWords seed the lexicons. Entries may
// be multi-word phrases; everything is normalized before matching.
var DefaultIgnoreWords = []string{
	"yeah", "yes", "yep", "ok", "okay", "sure", "right", "mhm", "hmm",
	"aha", "uh huh", "mm hmm", "got it", "i see", "go on",
}

var DefaultCommandWords = []string{
	"stop", "wait", "no", "pause", "cancel", "enough", "quiet", "actually",
	"hold on", "hang on", "hold up", "shut up", "never mind", "one second",
}

func Load() Config {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("engine.fuzzy_threshold", 0.8)
	v.SetDefault("engine.transcript_wait_ms", 500)
	v.SetDefault("engine.timeout_fallback", "interrupt")
	v.SetDefault("engine.guard_ms", 0)
	v.SetDefault("engine.max_speech_seconds", 60)
	v.SetDefault("engine.replace_lexicons", false)

	v.SetDefault("worker.token_skew_secs", 30)
	v.SetDefault("worker.token_exp_min", 60)

	// Map envs
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.log_level", "LOG_LEVEL")

	v.BindEnv("engine.ignore_words", "ENGINE_IGNORE_WORDS")
	v.BindEnv("engine.command_words", "ENGINE_COMMAND_WORDS")
	v.BindEnv("engine.replace_lexicons", "ENGINE_REPLACE_LEXICONS")
	v.BindEnv("engine.fuzzy_threshold", "ENGINE_FUZZY_THRESHOLD")
	v.BindEnv("engine.transcript_wait_ms", "ENGINE_TRANSCRIPT_WAIT_MS")
	v.BindEnv("engine.timeout_fallback", "ENGINE_TIMEOUT_FALLBACK")
	v.BindEnv("engine.guard_ms", "ENGINE_GUARD_MS")
	v.BindEnv("engine.max_speech_seconds", "ENGINE_MAX_SPEECH_SECONDS")

	v.BindEnv("worker.token_secret", "WORKER_TOKEN_SECRET")
	v.BindEnv("worker.token_skew_secs", "WORKER_TOKEN_SKEW_SECS")
	v.BindEnv("worker.token_exp_min", "WORKER_TOKEN_EXP_MIN")

	// Optional structured config file on top of env and defaults.
	if f := os.Getenv("ENGINE_CONFIG_FILE"); f != "" {
		v.SetConfigFile(f)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("[config] config file %s: %v", f, err)
		}
	}

	var c Config
	c.Server.Port = toString(v.Get("server.port"))
	c.Server.LogLevel = v.GetString("server.log_level")

	c.Engine.ReplaceLexicons = v.GetBool("engine.replace_lexicons")
	c.Engine.IgnoreWords = mergeWords(DefaultIgnoreWords, v.GetString("engine.ignore_words"), c.Engine.ReplaceLexicons)
	c.Engine.CommandWords = mergeWords(DefaultCommandWords, v.GetString("engine.command_words"), c.Engine.ReplaceLexicons)
	c.Engine.FuzzyThreshold = v.GetFloat64("engine.fuzzy_threshold")
	c.Engine.TranscriptWaitMs = v.GetInt("engine.transcript_wait_ms")
	c.Engine.TimeoutFallback = v.GetString("engine.timeout_fallback")
	c.Engine.GuardMs = v.GetInt("engine.guard_ms")
	c.Engine.MaxSpeechSeconds = v.GetInt("engine.max_speech_seconds")

	c.Worker.TokenSecret = v.GetString("worker.token_secret")
	c.Worker.TokenSkewSecs = v.GetInt("worker.token_skew_secs")
	c.Worker.TokenExpMin = v.GetInt("worker.token_exp_min")

	log.Printf("config loaded: port=%s wait_ms=%d fallback=%s ignore=%d command=%d",
		c.Server.Port, c.Engine.TranscriptWaitMs, c.Engine.TimeoutFallback,
		len(c.Engine.IgnoreWords), len(c.Engine.CommandWords))
	return c
}

// Validate rejects configurations that would silently degrade runtime
// behavior. Lexicon contents are checked again, harder, when the classifier
// is compiled; both run at startup.
func (c Config) Validate() error {
	if c.Engine.FuzzyThreshold <= 0 || c.Engine.FuzzyThreshold > 1 {
		return fmt.Errorf("%w: fuzzy_threshold %v outside (0,1]", ErrConfig, c.Engine.FuzzyThreshold)
	}
	if c.Engine.TranscriptWaitMs < 0 {
		return fmt.Errorf("%w: transcript_wait_ms %d negative", ErrConfig, c.Engine.TranscriptWaitMs)
	}
	if c.Engine.GuardMs < 0 {
		return fmt.Errorf("%w: guard_ms %d negative", ErrConfig, c.Engine.GuardMs)
	}
	switch c.Engine.TimeoutFallback {
	case "interrupt", "ignore":
	default:
		return fmt.Errorf("%w: timeout_fallback %q (want interrupt or ignore)", ErrConfig, c.Engine.TimeoutFallback)
	}
	if len(c.Engine.IgnoreWords) == 0 {
		return fmt.Errorf("%w: ignore_words lexicon is empty", ErrConfig)
	}
	if len(c.Engine.CommandWords) == 0 {
		return fmt.Errorf("%w: command_words lexicon is empty", ErrConfig)
	}
	return nil
}

// mergeWords combines built-in defaults with a comma-separated env value.
func mergeWords(defaults []string, env string, replace bool) []string {
	var extra []string
	for _, w := range strings.Split(env, ",") {
		w = strings.TrimSpace(w)
		if w != "" {
			extra = append(extra, w)
		}
	}
	if replace && len(extra) > 0 {
		return extra
	}
	out := make([]string, 0, len(defaults)+len(extra))
	out = append(out, defaults...)
	out = append(out, extra...)
	return out
}

func toString(v any) string { return fmt.Sprint(v) }
