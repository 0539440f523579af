// Package config defines pipeline configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log encoding: json or text.
	LogFormat string `koanf:"log_format"`

	// DataDir is searched for input files matching FileGlob.
	DataDir  string `koanf:"data_dir"`
	FileGlob string `koanf:"file_glob"`
	// DBPath is the embedded database file of the run.
	DBPath string `koanf:"db_path"`
	// OutputPath receives the exported JSON document.
	OutputPath string `koanf:"output_path"`
	// LevelRulesPath overrides the embedded level keyword table when set.
	LevelRulesPath string `koanf:"level_rules_path"`
	// MetricsTextfile, when set, receives the run's Prometheus metrics.
	MetricsTextfile  string `koanf:"metrics_textfile"`
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	// PhaseDurationBuckets are histogram upper bounds in seconds, strictly increasing.
	PhaseDurationBuckets []float64 `koanf:"phase_duration_buckets"`

	// BatchSize is the number of records per write transaction.
	BatchSize int `koanf:"batch_size"`
	// MaxLineBytes bounds one input line.
	MaxLineBytes int `koanf:"max_line_bytes"`
	// ExpectedPersons pre-sizes the duplicate tracker. Zero lets it grow.
	ExpectedPersons int `koanf:"expected_persons"`

	// MinSampleSize is the sample count below which a statistic is low confidence.
	MinSampleSize    int `koanf:"min_sample_size"`
	MajorTopRoles    int `koanf:"major_top_roles"`
	PathTopN         int `koanf:"path_top_n"`
	PathMinFrequency int `koanf:"path_min_frequency"`
	MetricWorkers    int `koanf:"metric_workers"`

	// Export trimming. Zero keeps everything.
	VelocityKeys              int `koanf:"velocity_keys"`
	RoleTransitionKeys        int `koanf:"role_transition_keys"`
	RoleTransitionTargets     int `koanf:"role_transition_targets"`
	IndustryTransitionKeys    int `koanf:"industry_transition_keys"`
	IndustryTransitionTargets int `koanf:"industry_transition_targets"`
	MajorKeys                 int `koanf:"major_keys"`
	MajorTargets              int `koanf:"major_targets"`
	PathKeys                  int `koanf:"path_keys"`
	PathTargets               int `koanf:"path_targets"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:   "info",
		LogFormat:  "json",
		DataDir:    "./data",
		FileGlob:   "live_data_persons_history_*.jsonl*",
		DBPath:     "./careers.db",
		OutputPath: "./output.json",

		MetricsNamespace:     "trajectory",
		MetricsSubsystem:     "pipeline",
		PhaseDurationBuckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600},

		BatchSize:    1000,
		MaxLineBytes: 16 << 20,

		MinSampleSize:    10,
		MajorTopRoles:    10,
		PathTopN:         5,
		PathMinFrequency: 2,
		MetricWorkers:    5,

		VelocityKeys:              0,
		RoleTransitionKeys:        200,
		RoleTransitionTargets:     20,
		IndustryTransitionKeys:    100,
		IndustryTransitionTargets: 20,
		MajorKeys:                 200,
		MajorTargets:              10,
		PathKeys:                  200,
		PathTargets:               5,
	}
}
