package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// DefaultTools lists every tool enabled out of the box.
var DefaultTools = []string{
	"set_timer",
	"stop_timer",
	"list_timers",
	"get_weather",
	"get_news",
	"meow",
	"search_web",
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	cfg := Config{}
	applyDefaults(&cfg)
	return cfg
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Audio.SampleRate == 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.ChunkSeconds == 0 {
		cfg.Audio.ChunkSeconds = 0.08
	}

	d := &cfg.Detector
	if d.WakeWordThreshold == 0 {
		d.WakeWordThreshold = 0.5
	}
	if d.MinAudioThreshold == 0 {
		d.MinAudioThreshold = 2000
	}
	if d.MaxSilenceSeconds == 0 {
		d.MaxSilenceSeconds = 2
	}
	if d.MaxAudioSeconds == 0 {
		d.MaxAudioSeconds = 20
	}
	if d.FollowUpMaxSeconds == 0 {
		d.FollowUpMaxSeconds = 10
	}
	if d.Calibration.Method == "" {
		d.Calibration.Method = "midpoint"
	}
	if d.Calibration.PhaseSeconds == 0 {
		d.Calibration.PhaseSeconds = 5
	}
	if d.Calibration.Percentile == 0 {
		d.Calibration.Percentile = 10
	}

	if cfg.WakeWord.Phrase == "" {
		cfg.WakeWord.Phrase = "hey jarvis"
	}
	if cfg.WakeWord.Language == "" {
		cfg.WakeWord.Language = "en"
	}
	if cfg.WakeWord.WindowSeconds == 0 {
		cfg.WakeWord.WindowSeconds = 1.5
	}
	if cfg.WakeWord.StrideFrames == 0 {
		cfg.WakeWord.StrideFrames = 4
	}

	if cfg.Transcriber.Language == "" {
		cfg.Transcriber.Language = "da"
	}

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "openai"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gpt-4o-mini"
	}

	if cfg.Agent.Name == "" {
		cfg.Agent.Name = "Robert"
	}
	if cfg.Agent.MinPromptLength == 0 {
		cfg.Agent.MinPromptLength = 1
	}
	if cfg.Agent.Tools == nil {
		cfg.Agent.Tools = append([]string(nil), DefaultTools...)
	}
	if cfg.Agent.ManualFixes == nil {
		cfg.Agent.ManualFixes = []TextFix{
			{From: "°C", To: " grader"},
			{From: "m/s", To: " meter i sekundet"},
			{From: "kl.", To: "klokken"},
		}
	}

	if cfg.TTS.Language == "" {
		cfg.TTS.Language = "da"
	}
	if cfg.TTS.TLD == "" {
		cfg.TTS.TLD = "dk"
	}

	t := &cfg.Tools
	if t.WeatherCacheMinutes == 0 {
		t.WeatherCacheMinutes = 60
	}
	if t.NewsFeedURL == "" {
		t.NewsFeedURL = "https://www.dr.dk/nyheder/service/feeds/%s"
	}
	if t.NewsCategories == nil {
		t.NewsCategories = []string{"indland", "udland", "politik"}
	}
	if t.NewsItems == 0 {
		t.NewsItems = 5
	}
	if t.CatSoundURL == "" {
		t.CatSoundURL = "https://cataas.com/cat/says/meow?size=50&color=red&json=true&filename=cute-cat-meow-472372.mp3"
	}
	if t.SearchMaxResults == 0 {
		t.SearchMaxResults = 10
	}

	if cfg.Network.TimeoutSeconds == 0 {
		cfg.Network.TimeoutSeconds = 120
	}
	if cfg.Network.Retries == 0 {
		cfg.Network.Retries = 5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = "pretty"
	}
}
