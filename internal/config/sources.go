package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"sigs.k8s.io/yaml"

	"jobmate/govjobs-service/internal/model"
)

// SourcesFile is the operator-maintained list of job sources.
type SourcesFile struct {
	Sources []SourceEntry `json:"sources"`
}

// SourceEntry is one source as written in the file. Active defaults to true.
type SourceEntry struct {
	Name    string             `json:"name"`
	BaseURL string             `json:"baseUrl"`
	Type    string             `json:"type"`
	Active  *bool              `json:"active,omitempty"`
	Config  model.SourceConfig `json:"config,omitempty"`
}

// LoadSources reads and validates a sources file.
func LoadSources(path string) ([]model.JobSource, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	return ParseSources(b)
}

// ParseSources decodes YAML (or JSON) source definitions. Every entry is
// checked and all problems are reported together.
func ParseSources(b []byte) ([]model.JobSource, error) {
	var f SourcesFile
	if err := yaml.UnmarshalStrict(b, &f); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}

	var errs []error
	seen := make(map[string]bool, len(f.Sources))
	out := make([]model.JobSource, 0, len(f.Sources))
	for i, e := range f.Sources {
		src, err := e.toSource()
		if err != nil {
			errs = append(errs, fmt.Errorf("sources[%d]: %w", i, err))
			continue
		}
		if seen[src.Name] {
			errs = append(errs, fmt.Errorf("sources[%d]: duplicate name %q", i, src.Name))
			continue
		}
		seen[src.Name] = true
		out = append(out, src)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (e SourceEntry) toSource() (model.JobSource, error) {
	name := strings.TrimSpace(e.Name)
	if name == "" {
		return model.JobSource{}, errors.New("name is required")
	}
	st, err := model.ParseSourceType(strings.ToLower(strings.TrimSpace(e.Type)))
	if err != nil {
		return model.JobSource{}, fmt.Errorf("%s: %w", name, err)
	}
	u, err := url.Parse(strings.TrimSpace(e.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.JobSource{}, fmt.Errorf("%s: baseUrl must be an absolute http(s) URL", name)
	}

	active := true
	if e.Active != nil {
		active = *e.Active
	}
	cfg := e.Config
	if cfg == nil {
		cfg = model.SourceConfig{}
	}
	return model.JobSource{Name: name, BaseURL: u.String(), Type: st, Active: active, Config: cfg}, nil
}
