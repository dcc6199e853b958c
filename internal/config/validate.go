package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}

	// Audio
	if cfg.Audio.SampleRate <= 0 {
		add("audio.sampleRate", "must be positive, got %d", cfg.Audio.SampleRate)
	}
	if cfg.Audio.ChunkSeconds <= 0 {
		add("audio.chunkSeconds", "must be positive, got %g", cfg.Audio.ChunkSeconds)
	} else if cfg.Audio.SampleRate > 0 && cfg.Audio.FrameLength() < 1 {
		add("audio.chunkSeconds", "frame shorter than one sample at %d Hz", cfg.Audio.SampleRate)
	}

	// Detector
	d := cfg.Detector
	if d.WakeWordThreshold < 0 || d.WakeWordThreshold > 1 {
		add("detector.wakeWordThreshold", "must be within [0, 1], got %g", d.WakeWordThreshold)
	}
	if d.MinAudioThreshold < 0 || d.MinAudioThreshold > 32767 {
		add("detector.minAudioThreshold", "must be within [0, 32767], got %d", d.MinAudioThreshold)
	}
	if d.MaxSilenceSeconds < cfg.Audio.ChunkSeconds {
		add("detector.maxSilenceSeconds", "must be at least one chunk (%gs), got %g", cfg.Audio.ChunkSeconds, d.MaxSilenceSeconds)
	}
	if d.MaxAudioSeconds <= 0 {
		add("detector.maxAudioSeconds", "must be positive, got %g", d.MaxAudioSeconds)
	}
	if d.FollowUpMaxSeconds < 0 {
		add("detector.followUpMaxSeconds", "must not be negative, got %g", d.FollowUpMaxSeconds)
	}
	validMethods := []string{"midpoint", "percentile"}
	if !slices.Contains(validMethods, d.Calibration.Method) {
		add("detector.calibration.method", "must be one of %v, got %q", validMethods, d.Calibration.Method)
	}
	if d.Calibration.Percentile <= 0 || d.Calibration.Percentile >= 100 {
		add("detector.calibration.percentile", "must be within (0, 100), got %g", d.Calibration.Percentile)
	}

	// Wake word
	if cfg.WakeWord.Phrase == "" {
		add("wakeWord.phrase", "phrase is required")
	}
	if cfg.WakeWord.StrideFrames < 1 {
		add("wakeWord.strideFrames", "must be at least 1, got %d", cfg.WakeWord.StrideFrames)
	}

	// LLM
	validProviders := []string{"openai", "ollama"}
	if !slices.Contains(validProviders, cfg.LLM.Provider) {
		add("llm.provider", "must be one of %v, got %q", validProviders, cfg.LLM.Provider)
	}
	if cfg.LLM.Model == "" {
		add("llm.model", "model is required")
	}
	if cfg.LLM.Provider == "openai" && cfg.LLM.APIKey == "" && cfg.LLM.BaseURL == "" {
		add("llm.apiKey", "required for openai (or set OPENAI_API_KEY)")
	}

	// Agent
	if cfg.Agent.MinPromptLength < 0 {
		add("agent.minPromptLength", "must not be negative, got %d", cfg.Agent.MinPromptLength)
	}
	seen := map[string]bool{}
	for _, name := range cfg.Agent.Tools {
		if seen[name] {
			add("agent.tools", "duplicate tool %q", name)
		}
		seen[name] = true
	}
	for i, fix := range append(slices.Clone(cfg.Agent.ManualFixes), cfg.Transcriber.ManualFixes...) {
		if fix.From == "" {
			add("manualFixes", "entry %d has an empty 'from'", i)
		}
	}

	// Network
	if cfg.Network.TimeoutSeconds < 0 {
		add("network.timeoutSeconds", "must not be negative, got %d", cfg.Network.TimeoutSeconds)
	}
	if cfg.Network.Retries < 0 {
		add("network.retries", "must not be negative, got %d", cfg.Network.Retries)
	}

	// Logging
	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		add("logging.level", "must be one of %v, got %q", validLogLevels, cfg.Logging.Level)
	}
	validConsoleStyles := []string{"pretty", "compact", "json"}
	if cfg.Logging.ConsoleStyle != "" && !slices.Contains(validConsoleStyles, cfg.Logging.ConsoleStyle) {
		add("logging.consoleStyle", "must be one of %v, got %q", validConsoleStyles, cfg.Logging.ConsoleStyle)
	}

	return issues
}
