package config

const (
	// File names looked up next to the working directory or the executable
	DefaultConfigFileName     = "api_file_processor_config.json"
	DefaultYAMLConfigFileName = "api_file_processor_config.yaml"
	DefaultEnvFileName        = ".env"
	ConfigPathEnvVar          = "APIFP_CONFIG_PATH"

	// ProcessedSubfolderName is created inside every folder_path
	ProcessedSubfolderName = "api_processed_files"
	// DefaultOutputSubfolderName is used when output_folder is omitted
	DefaultOutputSubfolderName = "api_results"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = "api_file_processor.log"
	DefaultMaxLogSizeMB  = 10
	DefaultMaxLogBackups = 5

	// HTTP client Defaults
	DefaultHTTPTimeoutSecs = 30
	DefaultUserAgent       = "apifileprocessor/1.0"

	// Retry Defaults
	DefaultRetryMaxRetries  = 3
	DefaultRetryBaseDelayMs = 1000
	DefaultRetryMaxDelayMs  = 30000

	// Lifecycle Defaults
	DefaultPollIntervalSecs     = 5
	DefaultMaxPollIntervalSecs  = 60
	DefaultMaxPollAttempts      = 30
	DefaultJobTimeoutSecs       = 900
	DefaultInitialPollDelaySecs = 3
	DefaultSubmitRetries        = 2
	DefaultMaxPollErrors        = 3
	DefaultMaxFileSizeMB        = 100

	// Runner Defaults
	DefaultMaxConcurrentFiles   = 4
	DefaultMaxConcurrentFolders = 2
	DefaultWatchDebounceMs      = 2000

	// API Defaults
	DefaultAssignedEndpointScheme = "https"
	DefaultAPIVersionPath         = "V5"
)

// Output naming policies for result files
const (
	OutputNamingJobID     = "job_id"
	OutputNamingOverwrite = "overwrite"
	OutputNamingTimestamp = "timestamp"
)
