/*
Package main is the primary CLI entrypoint: given one receipt image or PDF,
it rasterizes, preprocesses, runs OCR, extracts the grand total, and prints
the resulting JSON document on stdout.
*/
package main

import (
	"encoding/json"
	"flag"
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-grandtotal/src/pkg/config"
	"receipt-grandtotal/src/pkg/pipeline"
	"receipt-grandtotal/src/pkg/util"
)

func main() {
	config.CheckIfEnvVarsPresent()

	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	inputPath := flag.String("input", "", "Path to a receipt image (.jpg/.jpeg/.png) or PDF to process.")
	compactJSON := flag.Bool("json", false, "Emit compact JSON on stdout instead of indented.")

	flag.Parse()
	util.RequiredFlag(inputPath, "input")
	util.EnsureFlags()
	config.InitializeConfig(*configPath)

	tl.Log(tl.Notice, palette.BlueBold, "%s entrypoint. Input: '%s'", "extract", *inputPath)

	result := pipeline.NewService().Process(*inputPath)

	var encoded []byte
	var marshalErr error
	if *compactJSON {
		encoded, marshalErr = json.Marshal(result)
	} else {
		encoded, marshalErr = json.MarshalIndent(result, "", "  ")
	}
	if marshalErr != nil {
		xerr.NewError(marshalErr, "marshal extraction result to JSON", *inputPath).QuitIf(xerr.ErrorTypeError)
	}

	fmt.Println(string(encoded))
}
