package config

import (
	"strings"
	"time"
)

// Config is the root configuration for the voice bot.
type Config struct {
	Audio       AudioConfig       `yaml:"audio,omitempty"`
	Detector    DetectorConfig    `yaml:"detector,omitempty"`
	WakeWord    WakeWordConfig    `yaml:"wakeWord,omitempty"`
	Transcriber TranscriberConfig `yaml:"transcriber,omitempty"`
	LLM         LLMConfig         `yaml:"llm,omitempty"`
	Agent       AgentConfig       `yaml:"agent,omitempty"`
	TTS         TTSConfig         `yaml:"tts,omitempty"`
	Tools       ToolsConfig       `yaml:"tools,omitempty"`
	Network     NetworkConfig     `yaml:"network,omitempty"`
	Store       StoreConfig       `yaml:"store,omitempty"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
}

// AudioConfig describes the frame contract with the audio device.
type AudioConfig struct {
	SampleRate     int     `yaml:"sampleRate,omitempty"`
	ChunkSeconds   float64 `yaml:"chunkSeconds,omitempty"`
	PlayBackAudio  bool    `yaml:"playBackAudio,omitempty"`  // replay each captured utterance before transcribing
	SaveUtterances string  `yaml:"saveUtterances,omitempty"` // directory for WAV dumps; empty disables
}

// FrameLength is the number of samples per frame.
func (a AudioConfig) FrameLength() int {
	return int(float64(a.SampleRate) * a.ChunkSeconds)
}

// Chunk is the duration of one frame.
func (a AudioConfig) Chunk() time.Duration {
	return Seconds(a.ChunkSeconds)
}

// DetectorConfig holds the wake/turn detector thresholds.
type DetectorConfig struct {
	WakeWordThreshold  float64           `yaml:"wakeWordThreshold,omitempty"`
	MinAudioThreshold  int               `yaml:"minAudioThreshold,omitempty"` // int16 peak amplitude
	MaxSilenceSeconds  float64           `yaml:"maxSilenceSeconds,omitempty"`
	MaxAudioSeconds    float64           `yaml:"maxAudioSeconds,omitempty"`
	FollowUpMaxSeconds float64           `yaml:"followUpMaxSeconds,omitempty"`
	Calibration        CalibrationConfig `yaml:"calibration,omitempty"`
}

// CalibrationConfig controls loudness threshold calibration.
type CalibrationConfig struct {
	Method       string  `yaml:"method,omitempty"` // "midpoint" | "percentile"
	PhaseSeconds float64 `yaml:"phaseSeconds,omitempty"`
	Percentile   float64 `yaml:"percentile,omitempty"`
}

// WakeWordConfig configures the keyword spotter.
type WakeWordConfig struct {
	Phrase        string  `yaml:"phrase,omitempty"`
	ModelPath     string  `yaml:"modelPath,omitempty"` // whisper model used for spotting; defaults to the transcriber model
	Language      string  `yaml:"language,omitempty"`
	WindowSeconds float64 `yaml:"windowSeconds,omitempty"`
	StrideFrames  int     `yaml:"strideFrames,omitempty"`
}

// TranscriberConfig configures speech recognition.
type TranscriberConfig struct {
	ModelPath   string    `yaml:"modelPath,omitempty"`
	Language    string    `yaml:"language,omitempty"`
	Threads     int       `yaml:"threads,omitempty"`
	ManualFixes []TextFix `yaml:"manualFixes,omitempty"`
}

// LLMConfig selects the language model provider.
type LLMConfig struct {
	Provider    string   `yaml:"provider,omitempty"` // "openai" | "ollama"
	APIKey      string   `yaml:"apiKey,omitempty"`
	BaseURL     string   `yaml:"baseUrl,omitempty"`
	Model       string   `yaml:"model,omitempty"`
	Fallbacks   []string `yaml:"fallbacks,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
}

// AgentConfig configures the dialogue orchestrator.
type AgentConfig struct {
	Name            string    `yaml:"name,omitempty"`
	MinPromptLength int       `yaml:"minPromptLength,omitempty"`
	Tools           []string  `yaml:"tools,omitempty"`
	ManualFixes     []TextFix `yaml:"manualFixes,omitempty"`
	ExtraPrompt     string    `yaml:"extraPrompt,omitempty"`
}

// TextFix is a literal substitution applied to text.
type TextFix struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// TTSConfig configures speech synthesis.
type TTSConfig struct {
	Language string `yaml:"language,omitempty"`
	TLD      string `yaml:"tld,omitempty"`
	Endpoint string `yaml:"endpoint,omitempty"` // overrides https://translate.google.<tld>/translate_tts
}

// ToolsConfig configures the individual tools.
type ToolsConfig struct {
	GeonamesUsername    string   `yaml:"geonamesUsername,omitempty"`
	WeatherCacheMinutes int      `yaml:"weatherCacheMinutes,omitempty"`
	NewsFeedURL         string   `yaml:"newsFeedUrl,omitempty"` // contains one %s for the category
	NewsCategories      []string `yaml:"newsCategories,omitempty"`
	NewsItems           int      `yaml:"newsItems,omitempty"`
	CatSoundURL         string   `yaml:"catSoundUrl,omitempty"`
	SearchMaxResults    int      `yaml:"searchMaxResults,omitempty"`
}

// NetworkConfig configures outbound HTTP.
type NetworkConfig struct {
	Proxy          string `yaml:"proxy,omitempty"` // SOCKS5 address, e.g. 127.0.0.1:1080
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
	Retries        int    `yaml:"retries,omitempty"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	Disabled bool   `yaml:"disabled,omitempty"`
	Path     string `yaml:"path,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"`        // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "compact" | "json"
}

// Seconds converts fractional seconds to a duration.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// ApplyFixes applies fixes to s in order.
func ApplyFixes(s string, fixes []TextFix) string {
	for _, f := range fixes {
		if f.From == "" {
			continue
		}
		s = strings.ReplaceAll(s, f.From, f.To)
	}
	return s
}
