package bootstrap

import (
	"os"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a JSON logger in production and a text logger
// everywhere else. LOG_LEVEL overrides the default info level.
func NewLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	logger.SetLevel(logrus.InfoLevel)
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}
