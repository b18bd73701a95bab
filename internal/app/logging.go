package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/amaumene/foldpredict/internal/config"
	log "github.com/sirupsen/logrus"
)

// ConfigureLogging applies the configured level and output format to the
// standard logrus logger.
func ConfigureLogging(cfg *config.Config) error {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.LogFormat) {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
