/*
Package main is the batch-processing entrypoint: it walks a directory of
receipt images/PDFs, runs the extraction service over each one, and writes
one <name>.result.json per input next to a run manifest. Grounded on the
teacher's cmd/receipt-pipeline/main.go, which resolves -image as either a
single file or a directory the same way.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-grandtotal/src/pkg/config"
	"receipt-grandtotal/src/pkg/pipeline"
	"receipt-grandtotal/src/pkg/util"
)

type manifestEntry struct {
	Input      string `json:"input"`
	ResultPath string `json:"result_path,omitempty"`
	Error      string `json:"error,omitempty"`
}

func main() {
	config.CheckIfEnvVarsPresent()

	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	inputPath := flag.String("input", "", "Path to a receipt image/PDF OR a directory of them.")
	outputDirPath := flag.String("out", "./out", "Directory where <name>.result.json files and the manifest are stored.")

	flag.Parse()
	util.RequiredFlag(inputPath, "input")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	currentTime := time.Now()
	yearMonthDirName := fmt.Sprintf("%s-%04d", strings.ToLower(currentTime.Month().String()), currentTime.Year())
	finalOutputDirPath := filepath.Join(*outputDirPath, yearMonthDirName)

	tl.Log(tl.Notice, palette.BlueBold, "%s entrypoint. Input: '%s'", "extract-batch", *inputPath)
	tl.Log(tl.Info1, palette.Cyan, "%s '%s'", "Using output directory", finalOutputDirPath)

	if mkErr := os.MkdirAll(finalOutputDirPath, 0o755); mkErr != nil {
		xerr.NewError(mkErr, "create output directory", finalOutputDirPath).QuitIf(xerr.ErrorTypeError)
	}

	filesToProcess, e := resolveFilesToProcess(*inputPath)
	e.QuitIf(xerr.ErrorTypeError)

	if len(filesToProcess) == 0 {
		tl.Log(tl.Warning, palette.PurpleBold, "No .jpg/.jpeg/.png/.pdf files found at: '%s'", *inputPath)
		os.Exit(0)
	}

	tl.Log(tl.Notice1, palette.GreenBold, "Found '%d' files to process", len(filesToProcess))

	svc := pipeline.NewService()
	manifest := make([]manifestEntry, 0, len(filesToProcess))
	processedCount, skippedCount := 0, 0

	for _, path := range filesToProcess {
		tl.Log(tl.Notice, palette.BlueBold, "%s '%s'", "Processing file", path)

		result := svc.Process(path)
		entry := manifestEntry{Input: path}

		if result.Error != "" && result.GrandTotal == nil {
			entry.Error = result.Error
			skippedCount++
			tl.Log(tl.Warning, palette.PurpleBold, "Extraction failed for '%s': %s", path, result.Error)
			manifest = append(manifest, entry)
			continue
		}

		resultPath := filepath.Join(finalOutputDirPath, baseNameWithoutExt(path)+".result.json")
		encoded, marshalErr := json.MarshalIndent(result, "", "  ")
		if marshalErr != nil {
			entry.Error = marshalErr.Error()
			skippedCount++
			manifest = append(manifest, entry)
			continue
		}
		if writeErr := os.WriteFile(resultPath, encoded, 0o644); writeErr != nil {
			entry.Error = writeErr.Error()
			skippedCount++
			manifest = append(manifest, entry)
			continue
		}

		entry.ResultPath = resultPath
		processedCount++
		tl.Log(tl.Notice1, palette.GreenBold, "%s. Result stored in '%s'", "Extraction completed", resultPath)
		manifest = append(manifest, entry)
	}

	manifestPath := filepath.Join(finalOutputDirPath, "manifest.json")
	if encoded, marshalErr := json.MarshalIndent(manifest, "", "  "); marshalErr == nil {
		_ = os.WriteFile(manifestPath, encoded, 0o644)
	}

	tl.Log(tl.Notice, palette.GreenBold, "Done. Processed: '%d', skipped: '%d'", processedCount, skippedCount)
}

func resolveFilesToProcess(inputPath string) (files []string, e *xerr.Error) {
	trimmed := strings.TrimSpace(inputPath)
	if trimmed == "" {
		return nil, xerr.NewError(fmt.Errorf("input path is empty"), "missing -input path", inputPath)
	}

	info, statErr := os.Stat(trimmed)
	if statErr != nil {
		return nil, xerr.NewError(statErr, "stat -input path", trimmed)
	}

	if info.IsDir() {
		return listFilesInDir(trimmed)
	}

	if !isAllowedInputExt(strings.ToLower(filepath.Ext(trimmed))) {
		return nil, xerr.NewError(fmt.Errorf("unsupported input extension"), "input file is not .jpg/.jpeg/.png/.pdf", trimmed)
	}
	return []string{trimmed}, nil
}

func listFilesInDir(dirPath string) ([]string, *xerr.Error) {
	entries, readErr := os.ReadDir(dirPath)
	if readErr != nil {
		return nil, xerr.NewError(readErr, "read directory", dirPath)
	}

	var files []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(ent.Name()))
		if !isAllowedInputExt(ext) {
			continue
		}
		files = append(files, filepath.Join(dirPath, ent.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func isAllowedInputExt(ext string) bool {
	switch ext {
	case ".jpg", ".jpeg", ".png", ".pdf":
		return true
	default:
		return false
	}
}

func baseNameWithoutExt(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
