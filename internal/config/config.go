// Package config loads papervoice configuration: built-in defaults, an
// optional yaml file, a .env file for credentials, then PAPERVOICE_* /
// OPENAI_API_KEY environment overrides, validated last.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Synthesis SynthesisConfig `yaml:"synthesis"`
	Output    OutputConfig    `yaml:"output"`
	Merge     MergeConfig     `yaml:"merge"`
	JobLog    JobLogConfig    `yaml:"job_log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

type SynthesisConfig struct {
	// Mode selects the engine: openai, exec or mock.
	Mode    string `yaml:"mode"`
	APIKey  string `yaml:"api_key"`
	Command string `yaml:"command"`
	Voice   string `yaml:"voice"`
	Model   string `yaml:"model"`
	// StyleHint is passed to the engine as delivery instructions.
	StyleHint string `yaml:"style_hint"`
	// MaxChunkChars bounds the text sent per synthesis call.
	MaxChunkChars int `yaml:"max_chunk_chars"`
	// MaxAttempts > 1 enables bounded retry of transient upstream failures.
	MaxAttempts int `yaml:"max_attempts"`
	SampleRate  int `yaml:"sample_rate"`
	Channels    int `yaml:"channels"`
}

type OutputConfig struct {
	Dir string `yaml:"dir"`
	// Format is the artifact container: mp3 or wav.
	Format    string `yaml:"format"`
	FFmpegBin string `yaml:"ffmpeg_bin"`
}

type MergeConfig struct {
	GapMS int `yaml:"gap_ms"`
}

type JobLogConfig struct {
	Path string `yaml:"path"`
	// RetentionMode is one of ephemeral|recent|persistent.
	RetentionMode string `yaml:"retention_mode"`
	RetentionDays int    `yaml:"retention_days"`
	MaxRuns       int    `yaml:"max_runs"`
}

type TelemetryConfig struct {
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	TracesEnabled bool   `yaml:"traces_enabled"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
	OTLPInsecure  bool   `yaml:"otlp_insecure"`
}

func Default() Config {
	return Config{
		Synthesis: SynthesisConfig{
			Mode:          "openai",
			Voice:         "onyx",
			Model:         "gpt-4o-mini-tts",
			MaxChunkChars: 3500,
			MaxAttempts:   1,
			SampleRate:    24000,
			Channels:      1,
		},
		Output: OutputConfig{
			Dir:       "./audio",
			Format:    "mp3",
			FFmpegBin: "ffmpeg",
		},
		Merge: MergeConfig{
			GapMS: 300,
		},
		JobLog: JobLogConfig{
			Path:          "./data/papervoice-runs.db",
			RetentionMode: "recent",
			RetentionDays: 30,
			MaxRuns:       1000,
		},
		Telemetry: TelemetryConfig{
			LogLevel:     "info",
			OTLPInsecure: true,
		},
	}
}

// Load reads the config file at path (defaults apply when path is empty or
// the file is absent) and applies .env plus environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	// Credentials commonly live in a .env next to the working directory.
	_ = godotenv.Load()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse config file: %w", err)
			}
		case os.IsNotExist(err):
			// optional file; defaults stand
		default:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.Synthesis.Mode, "PAPERVOICE_SYNTHESIS_MODE")
	overrideString(&cfg.Synthesis.APIKey, "OPENAI_API_KEY")
	overrideString(&cfg.Synthesis.Command, "PAPERVOICE_SYNTHESIS_COMMAND")
	overrideString(&cfg.Synthesis.Voice, "PAPERVOICE_VOICE")
	overrideString(&cfg.Synthesis.Model, "PAPERVOICE_MODEL")
	overrideString(&cfg.Synthesis.StyleHint, "PAPERVOICE_STYLE_HINT")
	overrideInt(&cfg.Synthesis.MaxChunkChars, "PAPERVOICE_MAX_CHUNK_CHARS")
	overrideInt(&cfg.Synthesis.MaxAttempts, "PAPERVOICE_MAX_ATTEMPTS")
	overrideInt(&cfg.Synthesis.SampleRate, "PAPERVOICE_SAMPLE_RATE")
	overrideInt(&cfg.Synthesis.Channels, "PAPERVOICE_CHANNELS")
	overrideString(&cfg.Output.Dir, "PAPERVOICE_OUTPUT_DIR")
	overrideString(&cfg.Output.Format, "PAPERVOICE_OUTPUT_FORMAT")
	overrideString(&cfg.Output.FFmpegBin, "PAPERVOICE_FFMPEG_BIN")
	overrideInt(&cfg.Merge.GapMS, "PAPERVOICE_MERGE_GAP_MS")
	overrideString(&cfg.JobLog.Path, "PAPERVOICE_JOB_LOG_PATH")
	overrideString(&cfg.JobLog.RetentionMode, "PAPERVOICE_JOB_LOG_RETENTION_MODE")
	overrideInt(&cfg.JobLog.RetentionDays, "PAPERVOICE_JOB_LOG_RETENTION_DAYS")
	overrideInt(&cfg.JobLog.MaxRuns, "PAPERVOICE_JOB_LOG_MAX_RUNS")
	overrideString(&cfg.Telemetry.LogLevel, "PAPERVOICE_LOG_LEVEL")
	overrideString(&cfg.Telemetry.LogFile, "PAPERVOICE_LOG_FILE")
	overrideBool(&cfg.Telemetry.TracesEnabled, "PAPERVOICE_TRACES_ENABLED")
	overrideString(&cfg.Telemetry.OTLPEndpoint, "PAPERVOICE_OTLP_ENDPOINT")
	overrideBool(&cfg.Telemetry.OTLPInsecure, "PAPERVOICE_OTLP_INSECURE")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}

func validate(cfg Config) error {
	switch cfg.Synthesis.Mode {
	case "openai", "exec", "mock":
	default:
		return errors.New("synthesis.mode must be one of openai|exec|mock")
	}
	if cfg.Synthesis.Mode == "exec" && cfg.Synthesis.Command == "" {
		return errors.New("synthesis.command must be set when mode=exec")
	}
	if cfg.Synthesis.MaxChunkChars < 1 {
		return errors.New("synthesis.max_chunk_chars must be >= 1")
	}
	if cfg.Synthesis.MaxAttempts < 1 {
		return errors.New("synthesis.max_attempts must be >= 1")
	}
	if cfg.Synthesis.SampleRate <= 0 {
		return errors.New("synthesis.sample_rate must be positive")
	}
	if cfg.Synthesis.Channels <= 0 {
		return errors.New("synthesis.channels must be positive")
	}
	if cfg.Output.Dir == "" {
		return errors.New("output.dir must not be empty")
	}
	switch cfg.Output.Format {
	case "mp3", "wav":
	default:
		return errors.New("output.format must be one of mp3|wav")
	}
	if cfg.Merge.GapMS < 0 {
		return errors.New("merge.gap_ms must be >= 0")
	}
	switch cfg.JobLog.RetentionMode {
	case "ephemeral", "recent", "persistent":
	default:
		return errors.New("job_log.retention_mode must be one of ephemeral|recent|persistent")
	}
	if cfg.JobLog.RetentionMode != "ephemeral" && cfg.JobLog.Path == "" {
		return errors.New("job_log.path must not be empty")
	}
	if cfg.JobLog.RetentionDays < 0 {
		return errors.New("job_log.retention_days must be >= 0")
	}
	return nil
}
