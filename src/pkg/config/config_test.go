package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValueConfig(t *testing.T) {
	cfg := DefaultValueConfig()
	if cfg.OCRLanguages != "ind+eng" {
		t.Fatalf("OCRLanguages = %q, want ind+eng", cfg.OCRLanguages)
	}
	if cfg.RasterizeDPI != 300 || cfg.RasterizeFallbackDPI != 200 {
		t.Fatalf("unexpected rasterize DPI defaults: %+v", cfg)
	}
	if cfg.SummaryTemplateMode != "strict" {
		t.Fatalf("SummaryTemplateMode = %q, want strict", cfg.SummaryTemplateMode)
	}
}

func TestInitializeConfigMergesPartialFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.json")

	partial := map[string]any{"out_dir": "./custom-out"}
	data, marshalErr := json.Marshal(partial)
	if marshalErr != nil {
		t.Fatalf("failed to marshal fixture: %s", marshalErr)
	}
	if writeErr := os.WriteFile(configPath, data, 0o644); writeErr != nil {
		t.Fatalf("failed to write fixture: %s", writeErr)
	}

	InitializeConfig(configPath)

	if Cfg.OutDir != "./custom-out" {
		t.Fatalf("OutDir = %q, want ./custom-out", Cfg.OutDir)
	}
	if Cfg.RasterizeDPI != 300 {
		t.Fatalf("expected missing RasterizeDPI to fall back to default, got %d", Cfg.RasterizeDPI)
	}
	if Cfg.OCRLanguages != "ind+eng" {
		t.Fatalf("expected missing OCRLanguages to fall back to default, got %q", Cfg.OCRLanguages)
	}
}

func TestInitializeConfigMissingFileKeepsDefaults(t *testing.T) {
	Cfg = DefaultValueConfig()
	InitializeConfig(filepath.Join(t.TempDir(), "does-not-exist.json"))

	want := DefaultValueConfig()
	if Cfg != want {
		t.Fatalf("Cfg = %+v, want unchanged default %+v", Cfg, want)
	}
}

func TestGetPackageName(t *testing.T) {
	if GetPackageName() != "receipt-grandtotal" {
		t.Fatalf("GetPackageName() = %q, want receipt-grandtotal", GetPackageName())
	}
}
