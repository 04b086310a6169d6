package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"seismicview/internal/cli"
)

func main() {
	formatter := &prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
	}
	log.SetFormatter(formatter)
	// stdout carries command output
	log.SetOutput(os.Stderr)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
