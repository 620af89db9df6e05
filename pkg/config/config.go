package config

import (
	"fmt"
	"net"
	"os"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/zots0127/onefile/pkg/attachment"
	"github.com/zots0127/onefile/pkg/logger"
	"github.com/zots0127/onefile/pkg/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server      ServerConfig                `yaml:"server" json:"server"`
	Database    DatabaseConfig              `yaml:"database" json:"database"`
	Storage     StorageConfig               `yaml:"storage" json:"storage"`
	Attachments map[string]AttachmentConfig `yaml:"attachments" json:"attachments"`
	Logging     LoggingConfig               `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig               `yaml:"metrics" json:"metrics"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" json:"host" env:"SERVER_HOST" default:"0.0.0.0"`
	Port            string        `yaml:"port" json:"port" env:"SERVER_PORT" default:"8080"`
	Mode            string        `yaml:"mode" json:"mode" env:"SERVER_MODE" default:"release"` // debug, release, test
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" json:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	MaxUploadSize   string        `yaml:"max_upload_size" json:"max_upload_size" env:"SERVER_MAX_UPLOAD_SIZE" default:"100MB"`
}

// Address returns host:port
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// MaxUploadBytes returns MaxUploadSize in bytes.
func (s ServerConfig) MaxUploadBytes() (int64, error) {
	return ParseSize(s.MaxUploadSize)
}

// DatabaseConfig holds the sqlite database configuration
type DatabaseConfig struct {
	Path            string        `yaml:"path" json:"path" env:"DB_PATH" default:"./onefile.db"`
	MaxOpenConns    int           `yaml:"max_open_conns" json:"max_open_conns" env:"DB_MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `yaml:"max_idle_conns" json:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" default:"1h"`
}

// StorageConfig holds the named disks and the default disk name
type StorageConfig struct {
	Default string                        `yaml:"default" json:"default" env:"STORAGE_DEFAULT" default:"local"`
	Disks   map[string]storage.DiskConfig `yaml:"disks" json:"disks"`
}

// AttachmentConfig overrides the disk and the file column of one collection.
type AttachmentConfig struct {
	Disk       string `yaml:"disk" json:"disk"`
	FileColumn string `yaml:"file_column" json:"file_column"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level" env:"LOG_LEVEL" default:"info"`
	Format      string `yaml:"format" json:"format" env:"LOG_FORMAT" default:"json"`   // json, console
	Output      string `yaml:"output" json:"output" env:"LOG_OUTPUT" default:"stdout"` // stdout, stderr, file
	File        string `yaml:"file" json:"file" env:"LOG_FILE"`
	Development bool   `yaml:"development" json:"development" env:"LOG_DEVELOPMENT" default:"false"`
}

// Logger converts the section to a logger configuration.
func (l LoggingConfig) Logger() logger.Config {
	return logger.Config{
		Level:       l.Level,
		Format:      l.Format,
		Output:      l.Output,
		FilePath:    l.File,
		Development: l.Development,
	}
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled" env:"METRICS_ENABLED" default:"true"`
	Path      string `yaml:"path" json:"path" env:"METRICS_PATH" default:"/metrics"`
	Namespace string `yaml:"namespace" json:"namespace" env:"METRICS_NAMESPACE" default:"onefile"`
}

// Attachment returns the attachment settings of collection with the global
// defaults filled in.
func (c *Config) Attachment(collection string) AttachmentConfig {
	resolved := c.Attachments[collection]
	if resolved.Disk == "" {
		resolved.Disk = c.Storage.Default
	}
	if resolved.FileColumn == "" {
		resolved.FileColumn = attachment.DefaultFileField
	}
	return resolved
}

// Sanitized returns a copy of the configuration with credentials masked.
func (c *Config) Sanitized() *Config {
	out := *c
	out.Storage.Disks = make(map[string]storage.DiskConfig, len(c.Storage.Disks))
	for name, disk := range c.Storage.Disks {
		maskSensitive(reflect.ValueOf(&disk).Elem())
		out.Storage.Disks[name] = disk
	}
	out.Attachments = make(map[string]AttachmentConfig, len(c.Attachments))
	for name, a := range c.Attachments {
		out.Attachments[name] = a
	}
	return &out
}

func maskSensitive(v reflect.Value) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		if t.Field(i).Tag.Get("sensitive") == "true" && field.Kind() == reflect.String && field.String() != "" {
			field.SetString("***")
		}
	}
}

// ConfigManager manages configuration loading and validation
type ConfigManager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	watchers   []func(*Config)
	logger     *zap.Logger
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		watchers: make([]func(*Config), 0),
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger used for the configuration summary and reloads.
func (cm *ConfigManager) SetLogger(logger *zap.Logger) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.logger = logger
}

// Load loads configuration from file and environment variables. A missing
// file is not an error; the defaults are used instead.
func (cm *ConfigManager) Load(configPath string) (*Config, error) {
	config, err := cm.defaultConfig()
	if err != nil {
		return nil, fmt.Errorf("invalid default configuration: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := cm.loadFromFile(config, configPath); err != nil {
				return nil, fmt.Errorf("failed to load config from file: %w", err)
			}
		}
	}

	if err := cm.loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	if len(config.Storage.Disks) == 0 {
		config.Storage.Disks = defaultDisks()
	}
	if config.Attachments == nil {
		config.Attachments = map[string]AttachmentConfig{}
	}

	if err := NewValidator().ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	cm.mu.Lock()
	cm.configPath = configPath
	cm.config = config
	cm.mu.Unlock()

	cm.logConfigSummary(config)
	return config, nil
}

// Reload reloads the configuration and notifies the watchers. The previous
// configuration is kept when loading fails.
func (cm *ConfigManager) Reload() error {
	cm.mu.RLock()
	path := cm.configPath
	cm.mu.RUnlock()
	if path == "" {
		return fmt.Errorf("no config path set")
	}

	config, err := cm.Load(path)
	if err != nil {
		return err
	}

	cm.mu.RLock()
	watchers := append([]func(*Config){}, cm.watchers...)
	cm.mu.RUnlock()
	for _, watcher := range watchers {
		watcher(config)
	}
	return nil
}

// Watch adds a configuration change watcher
func (cm *ConfigManager) Watch(watcher func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.watchers = append(cm.watchers, watcher)
}

// GetConfig returns the current configuration
func (cm *ConfigManager) GetConfig() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigPath returns the path of the last loaded configuration file
func (cm *ConfigManager) ConfigPath() string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.configPath
}

// loadFromFile loads configuration from a YAML file
func (cm *ConfigManager) loadFromFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, config)
}

// loadFromEnv loads configuration from environment variables
func (cm *ConfigManager) loadFromEnv(config *Config) error {
	return cm.setEnvVars(reflect.ValueOf(config).Elem())
}

// setEnvVars recursively sets tagged struct fields from the environment
func (cm *ConfigManager) setEnvVars(v reflect.Value) error {
	return cm.setTaggedFields(v, "env", os.Getenv)
}

// setDefaults recursively sets struct fields from their default tags
func (cm *ConfigManager) setDefaults(v reflect.Value) error {
	return cm.setTaggedFields(v, "default", func(value string) string { return value })
}

// setTaggedFields sets every field carrying tag to lookup(tag value). Empty
// results leave the field unchanged.
func (cm *ConfigManager) setTaggedFields(v reflect.Value, tag string, lookup func(string) string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		tagValue := fieldType.Tag.Get(tag)
		if tagValue == "" {
			if field.Kind() == reflect.Struct {
				if err := cm.setTaggedFields(field, tag, lookup); err != nil {
					return err
				}
			}
			continue
		}

		value := lookup(tagValue)
		if value == "" {
			continue
		}

		if err := cm.setFieldValue(field, value); err != nil {
			return fmt.Errorf("failed to set field %s from %s %q: %w", fieldType.Name, tag, tagValue, err)
		}
	}

	return nil
}

// setFieldValue sets a field value from an environment variable string
func (cm *ConfigManager) setFieldValue(field reflect.Value, value string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(value)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if field.Type() == reflect.TypeOf(time.Duration(0)) {
			duration, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			field.SetInt(int64(duration))
		} else {
			var intValue int64
			_, err := fmt.Sscanf(value, "%d", &intValue)
			if err != nil {
				return err
			}
			field.SetInt(intValue)
		}
	case reflect.Bool:
		boolValue := value == "true" || value == "1" || value == "yes" || value == "on"
		field.SetBool(boolValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			values := strings.Split(value, ",")
			for i, v := range values {
				values[i] = strings.TrimSpace(v)
			}
			field.Set(reflect.ValueOf(values))
		}
	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

// defaultConfig returns the configuration described by the default tags.
// The disk map is left empty; defaultDisks fills it after loading.
func (cm *ConfigManager) defaultConfig() (*Config, error) {
	config := &Config{
		Attachments: map[string]AttachmentConfig{},
	}
	if err := cm.setDefaults(reflect.ValueOf(config).Elem()); err != nil {
		return nil, err
	}
	return config, nil
}

// defaultDisks returns the disks used when no disk is configured
func defaultDisks() map[string]storage.DiskConfig {
	return map[string]storage.DiskConfig{
		"local": {
			Driver: storage.DriverLocal,
			Root:   "./storage",
			URL:    "/storage",
		},
	}
}

// logConfigSummary logs a summary of the configuration without credentials
func (cm *ConfigManager) logConfigSummary(config *Config) {
	cm.mu.RLock()
	log := cm.logger
	cm.mu.RUnlock()

	disks := make([]string, 0, len(config.Storage.Disks))
	for name, disk := range config.Storage.Disks {
		disks = append(disks, name+"="+disk.Driver)
	}

	log.Info("configuration loaded",
		zap.String("address", config.Server.Address()),
		zap.String("database", config.Database.Path),
		zap.String("default_disk", config.Storage.Default),
		zap.Strings("disks", disks),
		zap.Int("attachment_overrides", len(config.Attachments)),
		zap.Bool("metrics", config.Metrics.Enabled),
	)
}
