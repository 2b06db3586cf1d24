// Package config holds the CLI-derived run configuration and the optional
// JSON-file override. Grounded on
// xtaci-kcptun/server/config.go::Config/parseJSONConfig.
package config

import (
	"encoding/json"
	"os"
)

// Config is the fully resolved set of run parameters, populated from CLI
// flags and optionally overridden by a JSON config file.
type Config struct {
	Webcam           bool     `json:"webcam"`
	Filename         string   `json:"filename"`
	Ops              []string `json:"ops"`
	Sobel            bool     `json:"sobel"`
	EmitCount        int      `json:"emit-count"`
	MaxPlausibleRate float64  `json:"max-plausible-rate"`
	RepeatSec        int      `json:"repeat-sec"`
	DebugCapture     string   `json:"debug-capture"`
	DebugPostOps     string   `json:"debug-post-ops"`
	FailedCapture    string   `json:"failed-capture"`
	DebugScoring     string   `json:"debug-scoring"`
	DigitTemplates   []string `json:"digit-templates"`
}

// Default returns a Config with emit-count set to 7 and every other field
// at its zero value. MaxPlausibleRate is therefore 0 here, not the CLI
// flag's 1e9 default.
func Default() Config {
	return Config{EmitCount: 7}
}

// ParseJSONConfig decodes the JSON file at path into cfg, overriding any
// field present in the file. Ported from
// xtaci-kcptun/server/config.go::parseJSONConfig.
func ParseJSONConfig(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return json.NewDecoder(file).Decode(cfg)
}
