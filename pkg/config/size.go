package config

import (
	"fmt"
	"strings"
)

// ParseSize parses a size string (e.g., "100MB", "1GB") into bytes
func ParseSize(sizeStr string) (int64, error) {
	if sizeStr == "" {
		return 0, fmt.Errorf("size string is empty")
	}

	sizeStr = strings.TrimSpace(sizeStr)

	var number float64
	var unit string

	n, err := fmt.Sscanf(sizeStr, "%f%s", &number, &unit)
	if n < 1 {
		return 0, fmt.Errorf("invalid size format: %s", sizeStr)
	}
	if n == 1 || err != nil {
		unit = "B"
	}
	if number < 0 {
		return 0, fmt.Errorf("negative size: %s", sizeStr)
	}

	switch strings.ToUpper(unit) {
	case "B":
		return int64(number), nil
	case "KB":
		return int64(number * 1024), nil
	case "MB":
		return int64(number * 1024 * 1024), nil
	case "GB":
		return int64(number * 1024 * 1024 * 1024), nil
	default:
		return 0, fmt.Errorf("unknown size unit: %s", unit)
	}
}

// FormatSize formats bytes into a human-readable string
func FormatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
