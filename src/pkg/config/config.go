// Package config loads the shared JSON configuration file every cmd/
// binary reads at startup into the package-level Cfg. It does not hand any
// section on to other packages, and no other package reads Cfg.
// This package was not present among the retrieved files — its shape is
// inferred from how src/cmd/*/main.go and src/pkg/echo-middleware call
// config.CheckIfEnvVarsPresent / config.InitializeConfig /
// config.GetPackageName, and follows the same
// DefaultValueConfig()/Cfg/tl.ApplyDefaults idiom those subpackages use.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
)

const packageName = "receipt-grandtotal"

// Config is the root of cfg/config.json. Every field is optional;
// InitializeConfig fills gaps with DefaultValueConfig's values.
type Config struct {
	OCRLanguages          string  `json:"ocr_languages,omitempty"`
	PageMinConfidence     float64 `json:"page_min_confidence,omitempty"`
	HandwrittenMinConfidence float64 `json:"handwritten_min_confidence,omitempty"`
	RasterizeDPI          int     `json:"rasterize_dpi,omitempty"`
	RasterizeFallbackDPI  int     `json:"rasterize_fallback_dpi,omitempty"`
	SummaryTemplateMode   string  `json:"summary_template_mode,omitempty"`
	OutDir                string  `json:"out_dir,omitempty"`
}

func DefaultValueConfig() Config {
	return Config{
		OCRLanguages:             "ind+eng",
		PageMinConfidence:        0.6,
		HandwrittenMinConfidence: 0.45,
		RasterizeDPI:             300,
		RasterizeFallbackDPI:     200,
		SummaryTemplateMode:      "strict",
		OutDir:                   "./out",
	}
}

// Cfg holds the process-wide configuration. It holds DefaultValueConfig's
// values even before InitializeConfig runs, the same as echo-middleware's
// package-level Cfg.
var Cfg Config = DefaultValueConfig()

// GetPackageName reports this module's name, used in log lines that need
// to identify which package's configuration they're describing.
func GetPackageName() string {
	return packageName
}

// CheckIfEnvVarsPresent logs a warning (without exiting) for every named
// environment variable that is unset or blank. Unlike util.EnsureFlags,
// missing env vars here are advisory — OCR_SUMMARY_TEMPLATE_MODE and the
// email-provider credentials all have usable defaults or are only needed
// by specific cmd/ binaries.
func CheckIfEnvVarsPresent(names ...string) {
	for _, name := range names {
		if os.Getenv(name) == "" {
			tl.Log(tl.Warning, palette.YellowBold, "%s environment variable is %s", name, "not set")
		}
	}
}

// InitializeConfig reads configPath (a JSON file shaped like Config) and
// merges it over DefaultValueConfig. A missing or unreadable file is not
// fatal: every cmd/ binary runs fine on defaults alone.
func InitializeConfig(configPath string) {
	data, readErr := os.ReadFile(configPath)
	if readErr != nil {
		tl.Log(tl.Info, palette.Purple, "%s config file '%s' is %s, using default configuration", packageName, configPath, "not readable")
		return
	}

	var localConfig Config
	if err := json.Unmarshal(data, &localConfig); err != nil {
		tl.Log(tl.Warning, palette.YellowBold, "%s config file '%s' is %s: %s", packageName, configPath, "not valid JSON", err)
		return
	}

	defaultConfig := DefaultValueConfig()
	Cfg = localConfig
	tl.ApplyDefaults(&Cfg, defaultConfig, func(field string, defVal any) {
		tl.Log(
			tl.Info, palette.Purple,
			"%s field is %s in %s configuration. Using default value: %v",
			field, "missing", packageName, tl.PrettyForStderr(defVal),
		)
	})

	tl.Log(tl.Info, palette.Green, "%s config was %s, using %s", packageName, "provided", "local configuration")
	tl.LogJSON(tl.Verbose, palette.CyanDim, fmt.Sprintf("%s configuration", packageName), Cfg)
}
