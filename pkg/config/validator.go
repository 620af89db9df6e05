package config

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/zots0127/onefile/pkg/storage"
)

var (
	identifierPattern        = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	prometheusLabelPattern   = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)
	s3BucketNamePattern      = regexp.MustCompile(`^[a-z0-9.-]+$`)
	validLogLevels           = []string{"debug", "info", "warn", "error"}
	validLogFormats          = []string{"json", "console"}
	validLogOutputs          = []string{"stdout", "stderr", "file"}
	validServerModes         = []string{"debug", "release", "test"}
	errMetricsPathNoSlash    = errors.New("metrics path must start with /")
	errAttachmentUnknownDisk = errors.New("attachment names an unknown disk")
)

// Validator provides configuration validation functions
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateConfig validates every section of the configuration
func (v *Validator) ValidateConfig(config *Config) error {
	if err := v.validateServerConfig(&config.Server); err != nil {
		return fmt.Errorf("server config validation failed: %w", err)
	}

	if err := v.validateDatabaseConfig(&config.Database); err != nil {
		return fmt.Errorf("database config validation failed: %w", err)
	}

	if err := v.validateStorageConfig(&config.Storage); err != nil {
		return fmt.Errorf("storage config validation failed: %w", err)
	}

	if err := v.validateAttachments(config.Attachments, config.Storage.Disks); err != nil {
		return fmt.Errorf("attachments config validation failed: %w", err)
	}

	if err := v.validateLoggingConfig(&config.Logging); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}

	if err := v.validateMetricsConfig(&config.Metrics); err != nil {
		return fmt.Errorf("metrics config validation failed: %w", err)
	}

	return nil
}

func (v *Validator) validateServerConfig(config *ServerConfig) error {
	port, err := strconv.Atoi(config.Port)
	if err != nil {
		return fmt.Errorf("invalid port: %s", config.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}

	if !contains(validServerModes, config.Mode) {
		return fmt.Errorf("invalid server mode: %s, must be one of %v", config.Mode, validServerModes)
	}

	if config.ReadTimeout <= 0 || config.WriteTimeout <= 0 || config.IdleTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}

	size, err := config.MaxUploadBytes()
	if err != nil {
		return fmt.Errorf("invalid max upload size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max upload size must be positive")
	}

	return nil
}

func (v *Validator) validateDatabaseConfig(config *DatabaseConfig) error {
	if config.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}

	if config.MaxOpenConns <= 0 {
		return fmt.Errorf("max open connections must be positive")
	}

	if config.MaxIdleConns < 0 {
		return fmt.Errorf("max idle connections cannot be negative")
	}

	if config.MaxIdleConns > config.MaxOpenConns {
		return fmt.Errorf("max idle connections cannot be greater than max open connections")
	}

	if config.ConnMaxLifetime <= 0 {
		return fmt.Errorf("connection max lifetime must be positive")
	}

	return nil
}

func (v *Validator) validateStorageConfig(config *StorageConfig) error {
	if config.Default == "" {
		return fmt.Errorf("default disk cannot be empty")
	}
	if _, ok := config.Disks[config.Default]; !ok {
		return fmt.Errorf("default disk %q is not configured: %w", config.Default, storage.ErrUnknownDisk)
	}

	names := make([]string, 0, len(config.Disks))
	for name := range config.Disks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := v.validateDiskConfig(config.Disks[name]); err != nil {
			return fmt.Errorf("disk %q: %w", name, err)
		}
	}

	return nil
}

func (v *Validator) validateDiskConfig(disk storage.DiskConfig) error {
	switch disk.Driver {
	case storage.DriverLocal:
		if disk.Root == "" {
			return fmt.Errorf("root cannot be empty for a local disk")
		}
		if disk.URL != "" && !strings.HasPrefix(disk.URL, "/") && !v.isValidURL(disk.URL) {
			return fmt.Errorf("invalid url: %s", disk.URL)
		}
	case storage.DriverS3:
		if !v.isValidS3BucketName(disk.Bucket) {
			return fmt.Errorf("invalid bucket name: %q", disk.Bucket)
		}
		if disk.Endpoint != "" && !v.isValidURL(disk.Endpoint) {
			return fmt.Errorf("invalid endpoint: %s", disk.Endpoint)
		}
		if (disk.AccessKey == "") != (disk.SecretKey == "") {
			return fmt.Errorf("access key and secret key must be set together")
		}
		if disk.URL != "" && !v.isValidURL(disk.URL) {
			return fmt.Errorf("invalid url: %s", disk.URL)
		}
	case storage.DriverMemory:
	default:
		return fmt.Errorf("%w: %q", storage.ErrUnknownDriver, disk.Driver)
	}

	return nil
}

func (v *Validator) validateAttachments(attachments map[string]AttachmentConfig, disks map[string]storage.DiskConfig) error {
	for collection, a := range attachments {
		if !identifierPattern.MatchString(collection) {
			return fmt.Errorf("invalid collection name: %q", collection)
		}
		if a.Disk != "" {
			if _, ok := disks[a.Disk]; !ok {
				return fmt.Errorf("%s: %w: %q", collection, errAttachmentUnknownDisk, a.Disk)
			}
		}
		if a.FileColumn != "" && !identifierPattern.MatchString(a.FileColumn) {
			return fmt.Errorf("%s: invalid file column: %q", collection, a.FileColumn)
		}
	}

	return nil
}

func (v *Validator) validateLoggingConfig(config *LoggingConfig) error {
	if !contains(validLogLevels, config.Level) {
		return fmt.Errorf("invalid log level: %s, must be one of %v", config.Level, validLogLevels)
	}

	if !contains(validLogFormats, config.Format) {
		return fmt.Errorf("invalid log format: %s, must be one of %v", config.Format, validLogFormats)
	}

	if !contains(validLogOutputs, config.Output) {
		return fmt.Errorf("invalid log output: %s, must be one of %v", config.Output, validLogOutputs)
	}

	if config.Output == "file" && config.File == "" {
		return fmt.Errorf("log file path cannot be empty when output is file")
	}

	return nil
}

func (v *Validator) validateMetricsConfig(config *MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	if !strings.HasPrefix(config.Path, "/") {
		return errMetricsPathNoSlash
	}

	if !prometheusLabelPattern.MatchString(config.Namespace) {
		return fmt.Errorf("invalid metrics namespace: %s", config.Namespace)
	}

	return nil
}

func (v *Validator) isValidS3BucketName(bucket string) bool {
	if len(bucket) < 3 || len(bucket) > 63 {
		return false
	}

	if strings.HasPrefix(bucket, "-") || strings.HasSuffix(bucket, "-") {
		return false
	}

	if strings.Contains(bucket, "--") {
		return false
	}

	return s3BucketNamePattern.MatchString(bucket)
}

func (v *Validator) isValidURL(urlStr string) bool {
	u, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
