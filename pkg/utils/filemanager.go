// =============================================================================
// In-flight Payment Sender - File Utilities
// =============================================================================
//
// This module provides the file helpers shared by the CLI and the reporters:
//   - Directory management
//   - JSON file output
//   - Output file naming with {uuid}/{timestamp} placeholders
//   - Input path extension checks
//
// =============================================================================

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// DIRECTORY MANAGEMENT
// =============================================================================

// EnsureDirectory creates dir (and parents) if it does not exist.
func EnsureDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// WriteJSONFile marshals v and writes it to path.
//
// PARAMETERS:
//   - path: The destination file. Its directory must exist.
//   - v: The value to encode.
//
// RETURNS:
//   - An error if encoding or writing fails.
//
// The file is written to a temporary sibling and renamed into place, so a
// reader never sees a half-written report.
func WriteJSONFile(path string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// FILE NAMING
// =============================================================================

// GenerateOutputFileName generates a file name from a format string.
//
// PARAMETERS:
//   - format: The format string for the file name.
//             Placeholders:
//               {uuid}      - A random UUID
//               {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//               {date}      - Current date (YYYYMMDD)
//               {time}      - Current time (HHMMSS)
//               {<key>}     - Any key of params
//   - ext: The extension to enforce, e.g. ".xlsx".
//   - params: Extra placeholder values.
//
// EXAMPLE:
//   format: "invalid_rows_{timestamp}_{uuid}"
//   output: "invalid_rows_20240115_143022_a1b2c3d4-e5f6-7890-abcd-ef1234567890.xlsx"
func GenerateOutputFileName(format, ext string, params map[string]string) string {
	now := time.Now()

	replacements := map[string]string{
		"{uuid}":      uuid.New().String(),
		"{timestamp}": now.Format("20060102_150405"),
		"{date}":      now.Format("20060102"),
		"{time}":      now.Format("150405"),
	}
	for key, value := range params {
		replacements["{"+key+"}"] = value
	}

	result := format
	for placeholder, value := range replacements {
		result = strings.ReplaceAll(result, placeholder, value)
	}

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

// =============================================================================
// PATH CHECKS
// =============================================================================

// HasExtension reports whether path ends with ext, ignoring case.
func HasExtension(path, ext string) bool {
	return strings.EqualFold(filepath.Ext(path), ext)
}
