package mocktracer

import (
	"bytes"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/opentracing/opentracing-go"
	"gopkg.in/yaml.v3"
)

// Codec names accepted in Config.Codecs.
const (
	CodecTextMap      = "text_map"
	CodecHTTPHeaders  = "http_headers"
	CodecTraceContext = "trace_context"
)

// Config describes a MockTracer built by NewFromConfig or the fx module.
type Config struct {
	// ServiceName is attached to log entries and metrics as the service
	// label.
	ServiceName string `yaml:"service_name"`

	// Sampled is the sampled flag of new root contexts. Defaults to true.
	Sampled *bool `yaml:"sampled"`

	// IDPoolSize enables pooled id minting when positive.
	IDPoolSize int `yaml:"id_pool_size"`

	// Workers and QueueSize enable the async handler worker pool when both
	// are positive.
	Workers   int `yaml:"workers"`
	QueueSize int `yaml:"queue_size"`

	// Codecs lists the propagation codecs to register. Nil registers all
	// of them; an empty list registers none.
	Codecs []string `yaml:"codecs"`

	// Metrics registers the Prometheus finish handler.
	Metrics bool `yaml:"metrics"`
}

// LoadConfig reads a YAML config file. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading tracer config %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return cfg, errors.Wrapf(err, "decoding tracer config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, errors.Wrapf(err, "tracer config %s", path)
	}
	return cfg, nil
}

// Validate checks field ranges and codec names.
func (c Config) Validate() error {
	if c.IDPoolSize < 0 {
		return errors.Newf("id_pool_size must be >= 0, got %d", c.IDPoolSize)
	}
	if c.Workers < 0 || c.QueueSize < 0 {
		return errors.Newf("workers and queue_size must be >= 0, got %d and %d", c.Workers, c.QueueSize)
	}
	if (c.Workers > 0) != (c.QueueSize > 0) {
		return errors.New("workers and queue_size must be set together")
	}
	for _, name := range c.Codecs {
		if _, ok := codecFormat(name); !ok {
			return errors.WithHintf(errors.Newf("unknown codec %q", name),
				"supported codecs: %s, %s, %s", CodecTextMap, CodecHTTPHeaders, CodecTraceContext)
		}
	}
	return nil
}

func (c Config) sampled() bool {
	return c.Sampled == nil || *c.Sampled
}

func (c Config) codecNames() []string {
	if c.Codecs == nil {
		return []string{CodecTextMap, CodecHTTPHeaders, CodecTraceContext}
	}
	return c.Codecs
}

func codecFormat(name string) (any, bool) {
	switch name {
	case CodecTextMap:
		return opentracing.TextMap, true
	case CodecHTTPHeaders:
		return opentracing.HTTPHeaders, true
	case CodecTraceContext:
		return TraceContext, true
	default:
		return nil, false
	}
}
