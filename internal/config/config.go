package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/common/model"
	"gopkg.in/yaml.v3"
)

// Config is the full tuning surface of the companion. Values come from
// defaults, then the optional yaml file, then LOBBYSWAP_* environment
// variables (a .env file next to the binary is honored). Durations use
// prometheus notation ("200ms", "2s") in both yaml and the environment.
type Config struct {
	// Control plane.
	LockfilePath string         `yaml:"lockfile_path"`
	APITimeout   model.Duration `yaml:"api_timeout"`

	// Poll intervals per component.
	PhasePollInterval  model.Duration `yaml:"phase_poll_interval"`
	ChampPollInterval  model.Duration `yaml:"champ_poll_interval"`
	DetectPollInterval model.Duration `yaml:"detect_poll_interval"`
	DetectIdleInterval model.Duration `yaml:"detect_idle_interval"` // 0 disables idle polling
	TickerHz           int            `yaml:"ticker_hz"`
	TickerResyncEvery  model.Duration `yaml:"ticker_resync_every"`

	// Detection.
	SettleDelay    model.Duration `yaml:"settle_delay"`    // after champion lock
	BurstWindow    model.Duration `yaml:"burst_window"`    // fast polling after a pixel change
	DiffThreshold  float64        `yaml:"diff_threshold"`  // perceptual diff, [0,1]
	MinSimilarity  float64        `yaml:"min_similarity"`  // resolver acceptance threshold
	DefaultLocale  string         `yaml:"default_locale"`  // resolver fallback language
	CacheDir       string         `yaml:"cache_dir"`       // name-database disk cache
	HistoryPath    string         `yaml:"history_path"`    // sqlite injection history
	DetectBackend  string         `yaml:"detect_backend"`  // "pixel" | "uitree" | "auto"
	RecognizeEvery model.Duration `yaml:"recognize_every"` // min interval between recognitions
	WindowName     string         `yaml:"window_name"`     // game client window title

	// Injection.
	TriggerThresholdMS int            `yaml:"trigger_threshold_ms"` // fire when remaining <= this
	InjectionCooldown  model.Duration `yaml:"injection_cooldown"`
	InjectionLockWait  model.Duration `yaml:"injection_lock_wait"`
	SuspendTimeout     model.Duration `yaml:"suspend_timeout"` // safety auto-resume
	GameProcessName    string         `yaml:"game_process_name"`
	SwapToolPath       string         `yaml:"swap_tool_path"` // empty disables unowned swaps
	SwapToolDir        string         `yaml:"swap_tool_dir"`
	TesseractPath      string         `yaml:"tesseract_path"` // pixel backend OCR binary

	// Status server.
	StatusAddr string `yaml:"status_addr"` // empty disables

	Debug bool `yaml:"debug"`
}

func Default() Config {
	return Config{
		APITimeout:         model.Duration(2 * time.Second),
		PhasePollInterval:  model.Duration(500 * time.Millisecond),
		ChampPollInterval:  model.Duration(250 * time.Millisecond),
		DetectPollInterval: model.Duration(50 * time.Millisecond),
		DetectIdleInterval: model.Duration(200 * time.Millisecond),
		TickerHz:           1000,
		TickerResyncEvery:  model.Duration(200 * time.Millisecond),
		SettleDelay:        model.Duration(200 * time.Millisecond),
		BurstWindow:        model.Duration(600 * time.Millisecond),
		DiffThreshold:      0.02,
		MinSimilarity:      0.7,
		DefaultLocale:      "en_US",
		CacheDir:           defaultCacheDir(),
		HistoryPath:        "lobbyswap.db",
		DetectBackend:      "auto",
		RecognizeEvery:     model.Duration(120 * time.Millisecond),
		WindowName:         "League of Legends",
		TriggerThresholdMS: 500,
		InjectionCooldown:  model.Duration(2 * time.Second),
		InjectionLockWait:  model.Duration(2 * time.Second),
		SuspendTimeout:     model.Duration(20 * time.Second),
		GameProcessName:    "League of Legends.exe",
		StatusAddr:         "127.0.0.1:4178",
	}
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return dir + string(os.PathSeparator) + "lobbyswap"
	}
	return "cache"
}

// Load builds a Config from defaults, an optional yaml file and the
// environment. A missing file is not an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	// .env is optional; real environment always wins.
	_ = godotenv.Load()
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	envStr("LOBBYSWAP_LOCKFILE", &cfg.LockfilePath)
	envStr("LOBBYSWAP_CACHE_DIR", &cfg.CacheDir)
	envStr("LOBBYSWAP_HISTORY_PATH", &cfg.HistoryPath)
	envStr("LOBBYSWAP_LOCALE", &cfg.DefaultLocale)
	envStr("LOBBYSWAP_BACKEND", &cfg.DetectBackend)
	envStr("LOBBYSWAP_STATUS_ADDR", &cfg.StatusAddr)
	envStr("LOBBYSWAP_GAME_PROCESS", &cfg.GameProcessName)
	envStr("LOBBYSWAP_SWAP_TOOL", &cfg.SwapToolPath)
	envStr("LOBBYSWAP_SWAP_TOOL_DIR", &cfg.SwapToolDir)
	envStr("LOBBYSWAP_TESSERACT", &cfg.TesseractPath)
	envDur("LOBBYSWAP_SETTLE_DELAY", &cfg.SettleDelay)
	envDur("LOBBYSWAP_INJECTION_COOLDOWN", &cfg.InjectionCooldown)
	envDur("LOBBYSWAP_SUSPEND_TIMEOUT", &cfg.SuspendTimeout)
	envInt("LOBBYSWAP_TRIGGER_THRESHOLD_MS", &cfg.TriggerThresholdMS)
	envInt("LOBBYSWAP_TICKER_HZ", &cfg.TickerHz)
	envFloat("LOBBYSWAP_MIN_SIMILARITY", &cfg.MinSimilarity)
	envBool("LOBBYSWAP_DEBUG", &cfg.Debug)
}

func envStr(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envDur(key string, dst *model.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := model.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func (c Config) validate() error {
	if c.MinSimilarity < 0 || c.MinSimilarity > 1 {
		return fmt.Errorf("min_similarity %v outside [0,1]", c.MinSimilarity)
	}
	if c.TickerHz < 10 {
		return fmt.Errorf("ticker_hz %d below minimum 10", c.TickerHz)
	}
	if c.TickerHz > 2000 {
		return fmt.Errorf("ticker_hz %d above maximum 2000", c.TickerHz)
	}
	if c.TriggerThresholdMS < 0 {
		return fmt.Errorf("trigger_threshold_ms must be >= 0")
	}
	if c.SuspendTimeout <= 0 {
		return fmt.Errorf("suspend_timeout must be > 0")
	}
	return nil
}
