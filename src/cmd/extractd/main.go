/*
Package main is the HTTP front door: it serves POST /v1/extract over
echo/v4, backed by the same pipeline.NewService() the CLI binaries use.
Grounded on the teacher's cmd/ server binary (address/port/rate-limit flags
feeding src/pkg/echo-middleware.Config) and src/pkg/httpapi for the route
itself.
*/
package main

import (
	"flag"
	"fmt"

	tl "github.com/tuumbleweed/tintlog/logger"
	"github.com/tuumbleweed/tintlog/palette"
	"github.com/tuumbleweed/xerr"

	"receipt-grandtotal/src/pkg/config"
	echomw "receipt-grandtotal/src/pkg/echo-middleware"
	"receipt-grandtotal/src/pkg/httpapi"
	"receipt-grandtotal/src/pkg/pipeline"
)

func main() {
	config.CheckIfEnvVarsPresent(echomw.EnvIntakeBearerToken)

	configPath := flag.String("config", "./cfg/config.json", "Path to your configuration file.")
	addressFlag := flag.String("address", "", "Address to bind (default: from config, falls back to 127.0.0.1).")
	portFlag := flag.Int("port", 0, "Port to bind (default: from config, falls back to 8401).")
	rateLimitFlag := flag.Int("rate-limit", 0, "Requests/sec allowed per client IP (default: from config).")
	burstFlag := flag.Int("burst", 0, "Burst size allowed per client IP (default: from config).")
	uploadDirFlag := flag.String("upload-dir", "./tmp/uploads", "Directory where uploaded files are staged before extraction.")

	flag.Parse()
	config.InitializeConfig(*configPath)

	echomwConfig := echomw.DefaultValueConfig()
	if *addressFlag != "" {
		echomwConfig.Address = *addressFlag
	}
	if *portFlag != 0 {
		echomwConfig.Port = *portFlag
	}
	if *rateLimitFlag != 0 {
		echomwConfig.MiddlewareRateLimit = *rateLimitFlag
	}
	if *burstFlag != 0 {
		echomwConfig.MiddlewareBurst = *burstFlag
	}
	echomw.InitializeConfig(&echomwConfig)

	tl.Log(tl.Notice, palette.BlueBold, "%s entrypoint. Upload directory: '%s'", "extractd", *uploadDirFlag)

	server := httpapi.NewServer(pipeline.NewService(), *uploadDirFlag, echomw.Cfg.MiddlewareRateLimit, echomw.Cfg.MiddlewareBurst)

	address := fmt.Sprintf("%s:%d", echomw.Cfg.Address, echomw.Cfg.Port)
	if startErr := server.Start(address); startErr != nil {
		xerr.NewError(startErr, "start extractd HTTP server", address).QuitIf(xerr.ErrorTypeError)
	}
}
