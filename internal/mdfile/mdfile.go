// ABOUTME: Helpers for markdown files with YAML frontmatter and small YAML state files.
// ABOUTME: Provides atomic writes, frontmatter render/parse and timestamp formatting.
package mdfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeLayout is the timestamp format written to frontmatter.
const TimeLayout = time.RFC3339Nano

const delimiter = "---"

// FormatTime renders t in UTC using TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime parses a timestamp written by FormatTime.
func ParseTime(s string) (time.Time, error) {
	return time.Parse(TimeLayout, s)
}

// RenderFrontmatter marshals fm as YAML and wraps it in --- fences above body.
func RenderFrontmatter(fm any, body string) (string, error) {
	data, err := yaml.Marshal(fm)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(delimiter + "\n")
	sb.Write(data)
	sb.WriteString(delimiter + "\n")
	sb.WriteString(body)
	return sb.String(), nil
}

// ParseFrontmatter splits content into its YAML frontmatter and body.
// Returns an empty yaml string when content has no frontmatter.
func ParseFrontmatter(content string) (yamlStr, body string) {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if !strings.HasPrefix(content, delimiter+"\n") {
		return "", content
	}
	rest := content[len(delimiter)+1:]
	end := strings.Index(rest, "\n"+delimiter+"\n")
	if end < 0 {
		if strings.HasSuffix(rest, "\n"+delimiter) {
			return rest[:len(rest)-len(delimiter)-1], ""
		}
		return "", content
	}
	return rest[:end+1], rest[end+len(delimiter)+2:]
}

// AtomicWrite writes data to path via a temp file and rename, creating parent directories.
func AtomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0600); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	return os.Rename(tmpName, path)
}

// ReadYAML decodes the YAML file at path into v. A missing file leaves v untouched.
func ReadYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, v)
}

// WriteYAML atomically writes v as YAML to path.
func WriteYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	return AtomicWrite(path, data)
}
