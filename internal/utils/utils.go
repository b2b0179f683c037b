package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	log "github.com/sirupsen/logrus"
)

var Log = logrus.New()

// ErrWorkerRunning is returned when another worker already holds the lock.
var ErrWorkerRunning = errors.New("another testovak worker is already running")

func SetLogLevel(level string) {
	// We are not using logrus' trace and panic levels
	switch strings.ToLower(level) {
	case "debug":
		Log.SetLevel(log.DebugLevel)
	case "info":
		Log.SetLevel(log.InfoLevel)
	case "warning", "warn":
		Log.SetLevel(log.WarnLevel)
	case "error":
		Log.SetLevel(log.ErrorLevel)
	case "fatal":
		Log.SetLevel(log.FatalLevel)
	default:
		log.Fatal("Bad error level string")
	}
}

// RetryLogger adapts a logrus logger to retryablehttp.LeveledLogger.
type RetryLogger struct {
	L *logrus.Logger
}

func (r RetryLogger) Error(msg string, keysAndValues ...interface{}) {
	r.L.WithFields(fields(keysAndValues)).Error(msg)
}

func (r RetryLogger) Info(msg string, keysAndValues ...interface{}) {
	r.L.WithFields(fields(keysAndValues)).Debug(msg)
}

func (r RetryLogger) Debug(msg string, keysAndValues ...interface{}) {
	r.L.WithFields(fields(keysAndValues)).Debug(msg)
}

func (r RetryLogger) Warn(msg string, keysAndValues ...interface{}) {
	r.L.WithFields(fields(keysAndValues)).Warn(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		f[fmt.Sprint(kv[i])] = kv[i+1]
	}
	if len(kv)%2 == 1 {
		f["extra"] = kv[len(kv)-1]
	}
	return f
}
