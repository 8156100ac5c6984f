package repository

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/mod/semver"
)

// ConfigFilename is the name of the per-directory package configuration
const ConfigFilename = "packmind.json"

// AnyVersion accepts every published version of a package
const AnyVersion = "*"

// ErrMalformedConfig indicates a config file that is not a valid package configuration
var ErrMalformedConfig = errors.New("malformed config file")

// Config is the content of a packmind.json file
type Config struct {
	Packages map[string]string `json:"packages" validate:"required,dive,keys,required,endkeys,required"`
}

// Slugs returns package slugs of the config
func (c *Config) Slugs() []string {
	ret := make([]string, 0, len(c.Packages))
	for slug := range c.Packages {
		ret = append(ret, slug)
	}
	return ret
}

// HierarchicalConfig is the merge of configs found walking up a directory tree
type HierarchicalConfig struct {
	Packages    map[string]string
	ConfigPaths []string
	HasConfigs  bool
}

// TargetConfig is a config anchored at the directory holding it
type TargetConfig struct {
	TargetPath         string            `json:"targetPath"` // "/" or "/rel" against the base path
	AbsoluteTargetPath string            `json:"absoluteTargetPath"`
	Packages           map[string]string `json:"packages"`
}

// TreeConfigs lists every config found around a directory
type TreeConfigs struct {
	Configs    []*TargetConfig
	HasConfigs bool
	BasePath   string
}

var validate = validator.New()

// decodeConfig parses and validates config data
func decodeConfig(data []byte) (*Config, error) {
	ret := &Config{}
	if err := json.Unmarshal(data, ret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedConfig, err)
	}
	if err := validate.Struct(ret); err != nil {
		return nil, fmt.Errorf("%w: expected { packages: { ... } }: %v", ErrMalformedConfig, err)
	}
	return ret, nil
}

// unrecognizedVersions returns versions that are neither AnyVersion nor semver
func (c *Config) unrecognizedVersions() map[string]string {
	var ret map[string]string
	for slug, version := range c.Packages {
		if version == AnyVersion || semver.IsValid(version) || semver.IsValid("v"+version) {
			continue
		}
		if ret == nil {
			ret = map[string]string{}
		}
		ret[slug] = version
	}
	return ret
}
