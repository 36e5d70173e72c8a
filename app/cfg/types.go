package cfg

import "time"

type Cfg struct {
	// Storage and outlets
	DBPath     string
	OutletsDir string

	// HTTP server
	Port         string
	BaseUrl      string
	APIAccessKey string

	// Collection and analysis
	WorkerCount         int
	FetchConcurrency    int
	ClassifyConcurrency int
	SchedulerInterval   time.Duration
	MinRunInterval      time.Duration
	AnalysisLimit       int
	RequestTimeout      time.Duration
	Once                bool

	// Classifier
	Classifier    string
	GeminiAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
