package logging

import (
	"os"
	"pnoti/internal/types"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Configure sets the global logrus level and formatter. An unknown level falls back to info.
// Format "json" selects the JSON formatter, anything else the text formatter.
func Configure(cfg types.LogSettings) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	if err != nil && cfg.Level != "" {
		log.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
}
