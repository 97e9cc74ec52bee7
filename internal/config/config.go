package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// External tool resolution
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Batch conversion behaviour
	Conversion ConversionConfig `yaml:"conversion" json:"conversion"`

	// Media probing
	Probe ProbeConfig `yaml:"probe" json:"probe"`

	// Watch folder mode
	Watch WatchConfig `yaml:"watch" json:"watch"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// EngineConfig controls where ffmpeg and ffprobe are found
type EngineConfig struct {
	FFmpegPath        string        `yaml:"ffmpeg_path" json:"ffmpeg_path" env:"MEDIACONV_FFMPEG_PATH"`
	FFprobePath       string        `yaml:"ffprobe_path" json:"ffprobe_path" env:"MEDIACONV_FFPROBE_PATH"`
	ResourceDir       string        `yaml:"resource_dir" json:"resource_dir" env:"MEDIACONV_RESOURCE_DIR"`
	CapabilityTimeout time.Duration `yaml:"capability_timeout" json:"capability_timeout" env:"MEDIACONV_CAPABILITY_TIMEOUT" default:"10s"`
}

// ConversionConfig controls how queued files are converted
type ConversionConfig struct {
	// Concurrency is the number of simultaneous engine processes. 1 runs the
	// queue sequentially, -1 sizes it from the machine's physical cores.
	Concurrency      int     `yaml:"concurrency" json:"concurrency" env:"MEDIACONV_CONCURRENCY" default:"1"`
	DestinationDir   string  `yaml:"destination_dir" json:"destination_dir" env:"MEDIACONV_DESTINATION_DIR"`
	DurationFallback float64 `yaml:"duration_fallback" json:"duration_fallback" env:"MEDIACONV_DURATION_FALLBACK" default:"0.01"`
}

// ProbeConfig controls metadata extraction
type ProbeConfig struct {
	Workers  int           `yaml:"workers" json:"workers" env:"MEDIACONV_PROBE_WORKERS" default:"4"`
	ReadTags bool          `yaml:"read_tags" json:"read_tags" env:"MEDIACONV_READ_TAGS" default:"true"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" env:"MEDIACONV_PROBE_TIMEOUT" default:"30s"`
}

// WatchConfig controls the watch folder
type WatchConfig struct {
	Dir       string        `yaml:"dir" json:"dir" env:"MEDIACONV_WATCH_DIR"`
	Debounce  time.Duration `yaml:"debounce" json:"debounce" env:"MEDIACONV_WATCH_DEBOUNCE" default:"2s"`
	Recursive bool          `yaml:"recursive" json:"recursive" env:"MEDIACONV_WATCH_RECURSIVE" default:"false"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level" env:"MEDIACONV_LOG_LEVEL" default:"info"`
	JSON  bool   `yaml:"json" json:"json" env:"MEDIACONV_LOG_JSON" default:"false"`
}

var durationType = reflect.TypeOf(time.Duration(0))

// DefaultConfig returns a configuration populated from the default tags
func DefaultConfig() *Config {
	cfg := &Config{}
	if err := applyDefaults(reflect.ValueOf(cfg).Elem()); err != nil {
		// Default tags are static; a failure here is a programming error.
		panic(fmt.Sprintf("invalid default tag: %v", err))
	}
	return cfg
}

// Load reads configuration from path (YAML or JSON) on top of the defaults,
// then applies environment overrides and validates the result. An empty
// path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFromFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	if err := loadStructFromEnv(reflect.ValueOf(cfg).Elem()); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to path, creating parent directories
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	var err error

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	case ".json":
		data, err = json.MarshalIndent(encodeJSON(reflect.ValueOf(c).Elem()), "", "  ")
	default:
		return fmt.Errorf("unsupported config file format: %s", filepath.Ext(path))
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Conversion.Concurrency < -1 || c.Conversion.Concurrency == 0 {
		return fmt.Errorf("invalid concurrency: %d", c.Conversion.Concurrency)
	}
	if c.Conversion.DurationFallback <= 0 {
		return fmt.Errorf("duration fallback must be positive: %v", c.Conversion.DurationFallback)
	}
	if c.Probe.Workers < 1 {
		return fmt.Errorf("invalid probe worker count: %d", c.Probe.Workers)
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("invalid watch debounce: %s", c.Watch.Debounce)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported log level: %s", c.Logging.Level)
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	case ".json":
		return decodeJSON(data, cfg)
	default:
		return fmt.Errorf("unsupported config file format: %s", filepath.Ext(path))
	}
}

// decodeJSON fills cfg from a JSON document. Durations accept the same
// "10s" strings as YAML and the environment, or integer nanoseconds.
func decodeJSON(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	return applyJSON(reflect.ValueOf(cfg).Elem(), raw)
}

func applyJSON(v reflect.Value, raw map[string]interface{}) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !field.CanSet() {
			continue
		}

		value, ok := raw[jsonName(fieldType)]
		if !ok || value == nil {
			continue
		}

		if field.Kind() == reflect.Struct {
			section, ok := value.(map[string]interface{})
			if !ok {
				return fmt.Errorf("field %s: expected an object", fieldType.Name)
			}
			if err := applyJSON(field, section); err != nil {
				return err
			}
			continue
		}

		var err error
		switch val := value.(type) {
		case string:
			err = setFieldValue(field, val)
		case json.Number:
			if field.Type() == durationType {
				var ns int64
				if ns, err = val.Int64(); err == nil {
					field.SetInt(ns)
				}
			} else {
				err = setFieldValue(field, val.String())
			}
		case bool:
			err = setFieldValue(field, strconv.FormatBool(val))
		default:
			err = fmt.Errorf("unsupported value %v", val)
		}
		if err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

// encodeJSON mirrors the YAML layout, writing durations as strings
func encodeJSON(v reflect.Value) map[string]interface{} {
	t := v.Type()
	out := make(map[string]interface{}, v.NumField())

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		name := jsonName(t.Field(i))

		switch {
		case field.Kind() == reflect.Struct:
			out[name] = encodeJSON(field)
		case field.Type() == durationType:
			out[name] = time.Duration(field.Int()).String()
		default:
			out[name] = field.Interface()
		}
	}

	return out
}

func jsonName(sf reflect.StructField) string {
	name := strings.Split(sf.Tag.Get("json"), ",")[0]
	if name == "" {
		return sf.Name
	}
	return name
}

func applyDefaults(v reflect.Value) error {
	return walkFields(v, func(field reflect.Value, sf reflect.StructField) error {
		def := sf.Tag.Get("default")
		if def == "" {
			return nil
		}
		return setFieldValue(field, def)
	})
}

func loadStructFromEnv(v reflect.Value) error {
	return walkFields(v, func(field reflect.Value, sf reflect.StructField) error {
		envTag := sf.Tag.Get("env")
		if envTag == "" {
			return nil
		}
		envValue, ok := os.LookupEnv(envTag)
		if !ok || envValue == "" {
			return nil
		}
		return setFieldValue(field, envValue)
	})
}

func walkFields(v reflect.Value, fn func(reflect.Value, reflect.StructField) error) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		if field.Kind() == reflect.Struct {
			if err := walkFields(field, fn); err != nil {
				return err
			}
			continue
		}

		if err := fn(field, fieldType); err != nil {
			return fmt.Errorf("failed to set field %s: %w", fieldType.Name, err)
		}
	}

	return nil
}

func setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == durationType {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			intVal, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return err
			}
			field.SetInt(intVal)
		}
	case reflect.Float32, reflect.Float64:
		floatVal, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		field.SetFloat(floatVal)
	case reflect.Bool:
		boolVal, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(boolVal)
	default:
		return fmt.Errorf("unsupported field type: %v", field.Kind())
	}

	return nil
}
