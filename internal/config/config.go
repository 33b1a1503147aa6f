package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Mahmood-Anaam/arabic-visual-question-answering/internal/apperrors"
)

// Captioner backend identifiers.
const (
	CaptionerViolet    = "violet"
	CaptionerBiT       = "bit"
	CaptionerTesseract = "tesseract"
)

// Answerer backend identifiers.
const (
	AnswererGemini = "gemini"
)

// Evaluator metric identifiers.
const (
	MetricBLEU        = "bleu"
	MetricWER         = "wer"
	MetricLevenshtein = "levenshtein"
)

// Storage backend identifiers.
const (
	StorageHTTP  = "http"
	StorageAzure = "azure"
	StorageLocal = "local"
)

// DefaultPromptTemplate interpolates the generated caption and the question
// into an Arabic instruction for the answerer.
const DefaultPromptTemplate = "وصف الصورة: {caption}\nأجب عن السؤال التالي إجابة قصيرة بالعربية اعتمادًا على وصف الصورة.\nالسؤال: {question}\nالإجابة:"

// Duration wraps time.Duration so YAML documents can carry values like "30s"
// and round-trip without loss.
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, perr := time.ParseDuration(strings.TrimSpace(s))
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", s, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var ms int64
	if err := value.Decode(&ms); err != nil {
		return fmt.Errorf("invalid duration node: %w", err)
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}

// Config is the validated option bundle shared by every component in a run.
// It is loaded once and must be treated as read-only afterwards; components
// receive it by pointer and never mutate it.
type Config struct {
	Captioner CaptionerConfig `yaml:"captioner"`
	Answerer  AnswererConfig  `yaml:"answerer"`
	Evaluator EvaluatorConfig `yaml:"evaluator"`
	Storage   StorageConfig   `yaml:"storage"`
	Batch     BatchConfig     `yaml:"batch"`
	Server    ServerConfig    `yaml:"server"`
}

type CaptionerConfig struct {
	Backend      string   `yaml:"backend"`
	Endpoint     string   `yaml:"endpoint"`
	Timeout      Duration `yaml:"timeout"`
	CaptionCount int      `yaml:"caption_count"`
	Language     string   `yaml:"language"`
}

type AnswererConfig struct {
	Backend        string   `yaml:"backend"`
	Model          string   `yaml:"model"`
	APIKey         string   `yaml:"api_key"`
	PromptTemplate string   `yaml:"prompt_template"`
	Temperature    float64  `yaml:"temperature"`
	Timeout        Duration `yaml:"timeout"`
}

type EvaluatorConfig struct {
	Metric        string  `yaml:"metric"`
	BLEUMaxOrder  int     `yaml:"bleu_max_order"`
	Normalize     bool    `yaml:"normalize"`
	PassThreshold float64 `yaml:"pass_threshold"`
}

type StorageConfig struct {
	Backend      string   `yaml:"backend"`
	AzureAccount string   `yaml:"azure_account"`
	AzureKey     string   `yaml:"azure_key"`
	LocalDir     string   `yaml:"local_dir"`
	FetchTimeout Duration `yaml:"fetch_timeout"`
}

type BatchConfig struct {
	Workers int `yaml:"workers"`
	Limit   int `yaml:"limit"`
}

type ServerConfig struct {
	Host               string   `yaml:"host"`
	Port               string   `yaml:"port"`
	RequestTimeout     Duration `yaml:"request_timeout"`
	MaxRequestBodySize int64    `yaml:"max_request_body_size"`
}

func (c *ServerConfig) Address() string {
	return net.JoinHostPort(strings.TrimSpace(c.Host), strings.TrimSpace(c.Port))
}

// Default returns the baseline configuration a YAML document overrides.
func Default() *Config {
	return &Config{
		Captioner: CaptionerConfig{
			Backend:      CaptionerViolet,
			Timeout:      Duration(30 * time.Second),
			CaptionCount: 1,
			Language:     "ara",
		},
		Answerer: AnswererConfig{
			Backend:        AnswererGemini,
			Model:          "gemini-1.5-flash",
			PromptTemplate: DefaultPromptTemplate,
			Temperature:    0.2,
			Timeout:        Duration(30 * time.Second),
		},
		Evaluator: EvaluatorConfig{
			Metric:        MetricBLEU,
			BLEUMaxOrder:  4,
			Normalize:     true,
			PassThreshold: 0.5,
		},
		Storage: StorageConfig{
			Backend:      StorageHTTP,
			LocalDir:     ".",
			FetchTimeout: Duration(15 * time.Second),
		},
		Batch: BatchConfig{
			Workers: 1,
		},
		Server: ServerConfig{
			Host:               "0.0.0.0",
			Port:               "8080",
			RequestTimeout:     Duration(60 * time.Second),
			MaxRequestBodySize: 10 * 1024 * 1024,
		},
	}
}

// Load reads a YAML document over the defaults, applies environment
// overrides for secrets and validates the result. A nil path yields the
// defaults (still subject to env overrides and validation).
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigurationError(fmt.Sprintf("parse config file %s", path), err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Answerer.APIKey = v
	}
	if v := os.Getenv("AZURE_STORAGE_ACCOUNT"); v != "" {
		cfg.Storage.AzureAccount = v
	}
	if v := os.Getenv("AZURE_STORAGE_KEY"); v != "" {
		cfg.Storage.AzureKey = v
	}
	if v := os.Getenv("HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
}

// Validate checks option ranges and identifier membership. Backend-specific
// prerequisites (endpoints, API keys) are checked again at construction time
// by the factory so that a capability can never be half-built.
func (c *Config) Validate() error {
	if !oneOf(c.Captioner.Backend, CaptionerViolet, CaptionerBiT, CaptionerTesseract) {
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown captioner.backend %q", c.Captioner.Backend), nil)
	}
	if !oneOf(c.Answerer.Backend, AnswererGemini) {
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown answerer.backend %q", c.Answerer.Backend), nil)
	}
	if !oneOf(c.Evaluator.Metric, MetricBLEU, MetricWER, MetricLevenshtein) {
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown evaluator.metric %q", c.Evaluator.Metric), nil)
	}
	if !oneOf(c.Storage.Backend, StorageHTTP, StorageAzure, StorageLocal) {
		return apperrors.NewConfigurationError(fmt.Sprintf("unknown storage.backend %q", c.Storage.Backend), nil)
	}
	if c.Captioner.Timeout <= 0 || c.Answerer.Timeout <= 0 || c.Storage.FetchTimeout <= 0 {
		return apperrors.NewConfigurationError("timeouts must be > 0", nil)
	}
	if c.Captioner.CaptionCount < 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("captioner.caption_count must be >= 1 (got %d)", c.Captioner.CaptionCount), nil)
	}
	if c.Evaluator.BLEUMaxOrder < 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("evaluator.bleu_max_order must be >= 1 (got %d)", c.Evaluator.BLEUMaxOrder), nil)
	}
	if c.Evaluator.PassThreshold < 0 || c.Evaluator.PassThreshold > 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("evaluator.pass_threshold must be in [0,1] (got %g)", c.Evaluator.PassThreshold), nil)
	}
	if c.Batch.Workers < 1 {
		return apperrors.NewConfigurationError(fmt.Sprintf("batch.workers must be >= 1 (got %d)", c.Batch.Workers), nil)
	}
	if c.Batch.Limit < 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("batch.limit must be >= 0 (got %d)", c.Batch.Limit), nil)
	}
	p, err := strconv.Atoi(strings.TrimSpace(c.Server.Port))
	if err != nil || p < 1 || p > 65535 {
		return apperrors.NewConfigurationError(fmt.Sprintf("invalid server.port %q", c.Server.Port), err)
	}
	if c.Server.RequestTimeout <= 0 {
		return apperrors.NewConfigurationError("server.request_timeout must be > 0", nil)
	}
	if c.Server.MaxRequestBodySize <= 0 {
		return apperrors.NewConfigurationError(fmt.Sprintf("server.max_request_body_size must be > 0 (got %d)", c.Server.MaxRequestBodySize), nil)
	}
	return nil
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
