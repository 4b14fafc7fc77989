// Package main generates the oracle callback shared secret.
package main

import (
	"flag"
	"os"

	"github.com/fairdraw/fairdraw/internal/platform/config"
	"github.com/fairdraw/fairdraw/internal/tools/callbackkey"
)

func main() {
	cfg, err := callbackkey.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := callbackkey.Run(cfg, os.Stdout, nil); err != nil {
		config.Exitf("generate secret: %v", err)
	}
}
