package cfg

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage and outlets
	DBPath     string `long:"db-path" env:"DB_PATH" default:"./rss-lens.db" description:"SQLite database file"`
	OutletsDir string `long:"outlets-dir" env:"OUTLETS_DIR" default:"./outlets" description:"Directory containing outlet configuration files"`

	// HTTP server
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl      string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://news.example.com)"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Collection and analysis
	WorkerCount         int  `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for outlet collection"`
	FetchConcurrency    int  `long:"fetch-concurrency" env:"FETCH_CONCURRENCY" default:"4" description:"Concurrent endpoint fetches per outlet"`
	ClassifyConcurrency int  `long:"classify-concurrency" env:"CLASSIFY_CONCURRENCY" default:"4" description:"Concurrent classifier requests per analysis run"`
	SchedulerInterval   int  `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"1800" description:"Collection cycle interval in seconds"`
	MinRunInterval      int  `long:"min-run-interval" env:"MIN_RUN_INTERVAL" default:"0" description:"Minimum seconds between analysis runs (0 disables the check)"`
	AnalysisLimit       int  `long:"analysis-limit" env:"ANALYSIS_LIMIT" default:"0" description:"Maximum records classified per run (0 means no limit)"`
	RequestTimeout      int  `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"30" description:"Timeout in seconds for a single fetch or classifier request"`
	Once                bool `long:"once" env:"ONCE" description:"Collect every outlet, run one analysis and exit"`

	// Classifier
	Classifier    string `long:"classifier" env:"CLASSIFIER" default:"gemini" choice:"gemini" choice:"openai" description:"Classification service"`
	GeminiAPIKey  string `long:"gemini-api-key" env:"GEMINI_API_KEY" description:"Gemini API key"`
	GeminiModel   string `long:"gemini-model" env:"GEMINI_MODEL" default:"gemini-1.5-flash" description:"Gemini model name"`
	OpenAIAPIKey  string `long:"openai-api-key" env:"OPENAI_API_KEY" description:"OpenAI API key"`
	OpenAIModel   string `long:"openai-model" env:"OPENAI_MODEL" default:"gpt-4o-mini" description:"OpenAI model name"`
	OpenAIBaseURL string `long:"openai-base-url" env:"OPENAI_BASE_URL" description:"OpenAI-compatible API base URL (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"RSS Lens/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses args instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args == nil {
		_, err = parser.Parse()
	} else {
		_, err = parser.ParseArgs(args)
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:              raw.DBPath,
		OutletsDir:          raw.OutletsDir,
		Port:                raw.Port,
		BaseUrl:             raw.BaseUrl,
		APIAccessKey:        raw.APIAccessKey,
		WorkerCount:         raw.WorkerCount,
		FetchConcurrency:    raw.FetchConcurrency,
		ClassifyConcurrency: raw.ClassifyConcurrency,
		SchedulerInterval:   time.Duration(raw.SchedulerInterval) * time.Second,
		MinRunInterval:      time.Duration(raw.MinRunInterval) * time.Second,
		AnalysisLimit:       raw.AnalysisLimit,
		RequestTimeout:      time.Duration(raw.RequestTimeout) * time.Second,
		Once:                raw.Once,
		Classifier:          raw.Classifier,
		GeminiAPIKey:        raw.GeminiAPIKey,
		GeminiModel:         raw.GeminiModel,
		OpenAIAPIKey:        raw.OpenAIAPIKey,
		OpenAIModel:         raw.OpenAIModel,
		OpenAIBaseURL:       raw.OpenAIBaseURL,
		UserAgent:           raw.UserAgent,
		Timezone:            raw.Timezone,
		Debug:               raw.Debug,
		Version:             GetVersion(),
	}

	if cfg.BaseUrl == "" {
		cfg.BaseUrl = "http://localhost:" + cfg.Port
	}
	cfg.BaseUrl = strings.TrimSuffix(cfg.BaseUrl, "/")

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func validate(cfg *Cfg) error {
	switch {
	case cfg.WorkerCount < 1:
		return fmt.Errorf("worker count must be positive, got %d", cfg.WorkerCount)
	case cfg.FetchConcurrency < 1:
		return fmt.Errorf("fetch concurrency must be positive, got %d", cfg.FetchConcurrency)
	case cfg.ClassifyConcurrency < 1:
		return fmt.Errorf("classify concurrency must be positive, got %d", cfg.ClassifyConcurrency)
	case cfg.SchedulerInterval <= 0:
		return fmt.Errorf("scheduler interval must be positive, got %s", cfg.SchedulerInterval)
	case cfg.MinRunInterval < 0:
		return fmt.Errorf("min run interval must not be negative, got %s", cfg.MinRunInterval)
	case cfg.AnalysisLimit < 0:
		return fmt.Errorf("analysis limit must not be negative, got %d", cfg.AnalysisLimit)
	case cfg.RequestTimeout <= 0:
		return fmt.Errorf("request timeout must be positive, got %s", cfg.RequestTimeout)
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
