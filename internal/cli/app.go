package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/soyeahso/voicebot/internal/agent"
	"github.com/soyeahso/voicebot/internal/audio"
	"github.com/soyeahso/voicebot/internal/audio/device"
	"github.com/soyeahso/voicebot/internal/config"
	"github.com/soyeahso/voicebot/internal/hooks"
	"github.com/soyeahso/voicebot/internal/llm"
	"github.com/soyeahso/voicebot/internal/logging"
	"github.com/soyeahso/voicebot/internal/netx"
	"github.com/soyeahso/voicebot/internal/store"
	"github.com/soyeahso/voicebot/internal/stt"
	"github.com/soyeahso/voicebot/internal/timer"
	"github.com/soyeahso/voicebot/internal/tools"
	"github.com/soyeahso/voicebot/internal/tts"
	"github.com/soyeahso/voicebot/internal/version"
	"github.com/soyeahso/voicebot/internal/wakeword"
)

// loadConfig loads .env files and the config file. Unless --log-level was
// given, the logger is rebuilt from the logging section. With strict set,
// validation issues are fatal.
func loadConfig(strict bool) (config.Config, error) {
	if err := config.LoadDotEnv(paths.DotEnv, ".env"); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if logLevel == "" {
		log = logging.NewStyled(nil, cfg.Logging.Level, cfg.Logging.ConsoleStyle)
	}
	if !strict {
		return cfg, nil
	}
	if issues := config.Validate(&cfg); len(issues) > 0 {
		for _, issue := range issues {
			log.Error().Str("path", issue.Path).Msg(issue.Message)
		}
		return cfg, fmt.Errorf("config validation failed with %d issue(s)", len(issues))
	}
	return cfg, nil
}

// app owns the long-lived collaborators of a command and closes them in
// reverse order of creation.
type app struct {
	cfg     config.Config
	http    *http.Client // retrying, used by tools and TTS
	llmHTTP *http.Client // the OpenAI SDK retries on its own
	db      *store.DB
	hooks   *hooks.Manager

	audioReady bool
	closers    []func()
}

func newApp(cfg config.Config) (*app, error) {
	if err := paths.EnsureDirs(); err != nil {
		return nil, fmt.Errorf("creating data directories: %w", err)
	}
	a := &app{cfg: cfg, hooks: hooks.NewManager(log)}

	opts := netx.Options{
		Proxy:     cfg.Network.Proxy,
		Timeout:   time.Duration(cfg.Network.TimeoutSeconds) * time.Second,
		Retries:   cfg.Network.Retries,
		UserAgent: version.UserAgent(),
		Log:       log,
	}
	var err error
	if a.http, err = netx.NewClient(opts); err != nil {
		return nil, err
	}
	if a.llmHTTP, err = netx.NewPlainClient(opts); err != nil {
		return nil, err
	}

	if !cfg.Store.Disabled {
		dbPath := paths.DatabasePath(cfg.Store)
		a.db, err = store.Open(dbPath, log)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		a.onClose(func() { _ = a.db.Close() })
		hooks.RecordTranscript(a.hooks, a.db)
		if n, err := a.db.CachePurge(); err != nil {
			log.Warn().Err(err).Msg("purging http cache")
		} else if n > 0 {
			log.Debug().Int64("entries", n).Msg("purged expired cache entries")
		}
		log.Debug().Str("path", dbPath).Msg("transcript store ready")
	}
	return a, nil
}

func (a *app) onClose(fn func()) { a.closers = append(a.closers, fn) }

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// cache returns the HTTP cache, or nil when the store is disabled.
func (a *app) cache() tools.Cache {
	if a.db == nil {
		return nil
	}
	return a.db
}

func (a *app) initAudio() error {
	if a.audioReady {
		return nil
	}
	terminate, err := device.Init()
	if err != nil {
		return err
	}
	a.onClose(terminate)
	a.audioReady = true
	return nil
}

// microphone opens the default input device.
func (a *app) microphone() (*device.Microphone, error) {
	if err := a.initAudio(); err != nil {
		return nil, err
	}
	mic, err := device.OpenMicrophone(a.cfg.Audio.SampleRate, a.cfg.Audio.FrameLength())
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = mic.Close() })
	return mic, nil
}

// speaker opens the default output device.
func (a *app) speaker() (*device.Speaker, error) {
	if err := a.initAudio(); err != nil {
		return nil, err
	}
	return device.NewSpeaker(0), nil
}

// voice returns the speech synthesizer playing on player.
func (a *app) voice(player audio.Player) *tts.Synthesizer {
	return tts.New(a.cfg.TTS, a.http, player, log)
}

// engine builds the dialogue engine with the configured tools. Timers
// announce themselves through voice and snd.
func (a *app) engine(voice tools.Speaker, snd tools.Sound) (*agent.Engine, error) {
	providers, err := llm.NewRegistryFromConfig(a.cfg.LLM, a.llmHTTP, version.UserAgent(), log)
	if err != nil {
		return nil, err
	}
	client := agent.NewFailoverClient(providers, a.cfg.LLM.Model, a.cfg.LLM.Fallbacks, log)

	announcer := timer.SpokenAnnouncer{Speaker: voice}
	if snd != nil {
		announcer.Chime = snd.Chime
	}
	sched := timer.NewScheduler(announcer, log, timer.OnFire(func(t *timer.Timer) {
		a.hooks.Emit(context.Background(), hooks.Payload{
			Event: hooks.EventTimerFired,
			Name:  "timer",
			Text:  timer.Danish(t.Duration),
			Data:  map[string]any{"id": t.ID},
		})
	}))
	a.onClose(sched.Close)

	all, err := tools.NewRegistry(tools.Builtin(tools.Deps{
		HTTP:      a.http,
		Cache:     a.cache(),
		Speaker:   voice,
		Sound:     snd,
		Scheduler: sched,
		Config:    a.cfg.Tools,
		CacheDir:  paths.Cache,
		Log:       log,
	})...)
	if err != nil {
		return nil, err
	}
	enabled, err := all.Select(a.cfg.Agent.Tools)
	if err != nil {
		return nil, fmt.Errorf("agent.tools: %w", err)
	}
	log.Info().Strs("tools", enabled.Names()).Str("model", a.cfg.LLM.Model).Msg("dialogue engine ready")

	return agent.NewEngine(agent.ConfigFrom(a.cfg), client, enabled, log, agent.WithHooks(a.hooks)), nil
}

// transcriber loads the whisper model and wraps it with the manual fixes.
func (a *app) transcriber() (stt.Transcriber, *stt.Model, error) {
	model, err := a.loadModel(a.cfg.Transcriber.ModelPath)
	if err != nil {
		return nil, nil, err
	}
	w := stt.NewWhisper(model, stt.Options{
		Language: a.cfg.Transcriber.Language,
		Threads:  a.cfg.Transcriber.Threads,
	}, log)
	return stt.Fixed{Transcriber: w, Fixes: a.cfg.Transcriber.ManualFixes, Log: log.Sub("stt")}, model, nil
}

// spotter builds the wake word scorer. It shares shared when the wake word
// model is not configured separately.
func (a *app) spotter(shared *stt.Model) (*wakeword.Spotter, error) {
	ww := a.cfg.WakeWord
	model := shared
	if ww.ModelPath != "" && paths.ModelPath(ww.ModelPath) != paths.ModelPath(a.cfg.Transcriber.ModelPath) {
		var err error
		if model, err = a.loadModel(ww.ModelPath); err != nil {
			return nil, err
		}
	}
	rec := stt.NewWhisper(model, stt.Options{
		Language: ww.Language,
		Threads:  a.cfg.Transcriber.Threads,
		Prompt:   ww.Phrase,
	}, log)

	window := 1
	if a.cfg.Audio.ChunkSeconds > 0 {
		window = max(1, int(ww.WindowSeconds/a.cfg.Audio.ChunkSeconds))
	}
	return wakeword.NewSpotter(rec, wakeword.Options{
		Phrase:       ww.Phrase,
		WindowFrames: window,
		StrideFrames: ww.StrideFrames,
		MinPeak:      a.cfg.Detector.MinAudioThreshold,
	}, log), nil
}

func (a *app) loadModel(name string) (*stt.Model, error) {
	if name == "" {
		return nil, fmt.Errorf("no whisper model configured; set transcriber.modelPath (files are looked up in %s)", paths.Models)
	}
	path := paths.ModelPath(name)
	log.Info().Str("model", filepath.Base(path)).Msg("loading whisper model")
	model, err := stt.LoadModel(path)
	if err != nil {
		return nil, err
	}
	a.onClose(func() { _ = model.Close() })
	return model, nil
}

// textVoice prints what would have been spoken.
type textVoice struct{ w io.Writer }

func (v textVoice) Speak(_ context.Context, text string) error {
	_, err := fmt.Fprintln(v.w, text)
	return err
}

// textSound prints sound effects instead of playing them.
type textSound struct{ w io.Writer }

func (s textSound) PlayFile(_ context.Context, path string) error {
	_, err := fmt.Fprintf(s.w, "[afspiller %s]\n", filepath.Base(path))
	return err
}

func (s textSound) Chime(context.Context) error {
	_, err := fmt.Fprintln(s.w, "[ding]")
	return err
}

