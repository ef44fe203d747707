// Package file reads the target registry from a local file.
//
// Two layouts are accepted: a top-level JSON array of
//
//	{"name": "...", "url": "...", "keyword": "..."}
//
// objects, or a JSON, YAML or TOML document carrying the same objects under
// a "targets" key.
package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

type Source struct {
	Path string
}

func New(path string) *Source {
	return &Source{Path: path}
}

func (s *Source) Load(ctx context.Context) ([]domain.Descriptor, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("read targets: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("read targets: %s is empty", s.Path)
	}

	var out []domain.Descriptor
	if data[0] == '[' {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode targets: %w", err)
		}
		return out, nil
	}

	v := viper.New()
	v.SetConfigType(configType(s.Path))
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}
	if !v.IsSet("targets") {
		return nil, fmt.Errorf("decode targets: %s has no targets key", s.Path)
	}
	if err := v.UnmarshalKey("targets", &out); err != nil {
		return nil, fmt.Errorf("decode targets: %w", err)
	}
	return out, nil
}

func configType(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return "json"
	}
}
