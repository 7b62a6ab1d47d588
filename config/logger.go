package config

import (
	"github.com/MonkyMars/gecho"
)

var logger *gecho.Logger

func InitializeLogger() *gecho.Logger {
	logger = NewLogger(true)
	return logger
}

// NewLogger builds a logger at the level that matches the current environment.
func NewLogger(showCaller bool) *gecho.Logger {
	level := gecho.ParseLogLevel(GetLogLevel())
	return gecho.NewLogger(gecho.NewConfig(gecho.WithShowCaller(showCaller), gecho.WithLogLevel(level)))
}

func GetLogger() *gecho.Logger {
	if logger == nil {
		return InitializeLogger()
	}
	return logger
}
