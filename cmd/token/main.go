// Package main issues API bearer tokens for operators and entrants.
package main

import (
	"flag"
	"os"

	"github.com/fairdraw/fairdraw/internal/platform/config"
	"github.com/fairdraw/fairdraw/internal/tools/authtoken"
)

func main() {
	cfg, err := authtoken.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("parse flags: %v", err)
	}
	if err := authtoken.Run(cfg, os.Stdout); err != nil {
		config.Exitf("issue token: %v", err)
	}
}
