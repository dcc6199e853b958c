package cli

import (
	"github.com/spf13/pflag"

	"github.com/soyeahso/voicebot/internal/config"
)

// detectorFlags overrides detector thresholds for a single run.
type detectorFlags struct {
	wakeThreshold float64
	loudness      int
	followUp      float64
	fs            *pflag.FlagSet
}

func newDetectorFlags() *detectorFlags {
	f := &detectorFlags{fs: pflag.NewFlagSet("detector", pflag.ContinueOnError)}
	f.fs.Float64Var(&f.wakeThreshold, "wake-threshold", 0, "wake word score needed to start recording (0-1)")
	f.fs.IntVar(&f.loudness, "loudness", 0, "peak amplitude that counts as speech")
	f.fs.Float64Var(&f.followUp, "follow-up", 0, "seconds after a reply during which no wake word is needed")
	return f
}

// apply copies the flags that were set on the command line into cfg.
func (f *detectorFlags) apply(cfg *config.Config) {
	if f.fs.Changed("wake-threshold") {
		cfg.Detector.WakeWordThreshold = f.wakeThreshold
	}
	if f.fs.Changed("loudness") {
		cfg.Detector.MinAudioThreshold = f.loudness
	}
	if f.fs.Changed("follow-up") {
		cfg.Detector.FollowUpMaxSeconds = f.followUp
	}
}
