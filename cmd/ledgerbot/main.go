package main

import (
	"log"

	"github.com/m3rciful/ledgerbot/core/buildinfo"
	"github.com/m3rciful/ledgerbot/core/cmd"
	coreconfig "github.com/m3rciful/ledgerbot/core/config"
	"github.com/m3rciful/ledgerbot/internal/app"
)

func main() {
	log.Printf("ledgerbot %s (%s)", buildinfo.Version, buildinfo.Commit)

	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		EnvFiles:          []string{".env"},
		LoadConfig:        coreconfig.Load,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("ledgerbot: %v", err)
	}
}
