package main

import (
	"log"

	"github.com/m3rciful/avtobot/bot/app"
	"github.com/m3rciful/avtobot/core/cmd"
)

func main() {
	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.Load,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("avtobot: %v", err)
	}
}
