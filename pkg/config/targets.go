// Package config resolves the provider-region targets of a run.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/kyma-project/gpu-pricing-collector/pkg/collector"
)

const (
	targetsKey      = "targets"
	targetSeparator = "="
)

var (
	ErrInvalidTarget = errors.New("invalid target")
	ErrNoTargets     = errors.New("no targets configured")
)

// ParseTarget parses "provider=region", e.g. "AWS=us-west-2".
func ParseTarget(s string) (collector.Target, error) {
	provider, region, ok := strings.Cut(s, targetSeparator)
	if !ok {
		return collector.Target{}, fmt.Errorf("%w %q: expected provider=region", ErrInvalidTarget, s)
	}

	return newTarget(provider, region)
}

// ParseTargets parses every "provider=region" pair.
func ParseTargets(pairs []string) ([]collector.Target, error) {
	targets := make([]collector.Target, 0, len(pairs))

	for _, pair := range pairs {
		t, err := ParseTarget(pair)
		if err != nil {
			return nil, err
		}

		targets = append(targets, t)
	}

	return targets, nil
}

// LoadTargets reads the targets list of a YAML or JSON file. Entries are either "provider=region" strings or
// objects with provider and region:
//
//	targets:
//	  - provider: AWS
//	    region: us-west-2
//	  - Tencent=na-siliconvalley
func LoadTargets(fs afero.Fs, path string) ([]collector.Target, error) {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read targets file %s: %w", path, err)
	}

	entries, ok := v.Get(targetsKey).([]any)
	if !ok || len(entries) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoTargets, path)
	}

	targets := make([]collector.Target, 0, len(entries))

	for i, entry := range entries {
		var (
			t   collector.Target
			err error
		)

		switch e := entry.(type) {
		case string:
			t, err = ParseTarget(e)
		case map[string]any:
			t, err = newTarget(stringValue(e, "provider"), stringValue(e, "region"))
		default:
			err = fmt.Errorf("%w: unsupported entry %v", ErrInvalidTarget, entry)
		}

		if err != nil {
			return nil, fmt.Errorf("target %d in %s: %w", i, path, err)
		}

		targets = append(targets, t)
	}

	return targets, nil
}

// ResolveTargets prefers the targets file over the target flags over the defaults.
func ResolveTargets(fs afero.Fs, file string, pairs, defaults []string) ([]collector.Target, error) {
	switch {
	case file != "":
		return LoadTargets(fs, file)
	case len(pairs) > 0:
		return ParseTargets(pairs)
	default:
		return ParseTargets(defaults)
	}
}

func newTarget(provider, region string) (collector.Target, error) {
	provider, region = strings.TrimSpace(provider), strings.TrimSpace(region)
	if provider == "" || region == "" {
		return collector.Target{}, fmt.Errorf("%w %q: provider and region must not be empty", ErrInvalidTarget, provider+targetSeparator+region)
	}

	return collector.Target{Provider: provider, Region: region}, nil
}

func stringValue(m map[string]any, key string) string {
	value, ok := m[key]
	if !ok || value == nil {
		return ""
	}

	return fmt.Sprint(value)
}
