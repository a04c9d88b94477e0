package logger

import (
	"fmt"
	"os"
	"regexp"

	"github.com/rs/zerolog"
)

// LogFormat is used to set how the log messages should be displayed
type LogFormat int

const (
	// JSON displays the logs as JSON dicts
	JSON LogFormat = iota
	// HUMAN displays the logs in a way that's nice for humans to read
	HUMAN
)

var log = newLogger(HUMAN)

// secretShaped matches long token-looking strings so they can be masked
// before an error message is logged or displayed
var secretShaped = regexp.MustCompile(`\b(?:ghp_|gho_|ghu_|ghs_|github_pat_|glpat-|xox[baprs]-|sk-|AKIA)[0-9A-Za-z_\-]{8,}\b`)

func newLogger(format LogFormat) zerolog.Logger {
	var logger zerolog.Logger

	switch format {
	case HUMAN:
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	default:
		logger = zerolog.New(os.Stderr)
	}

	return logger.With().Timestamp().Logger()
}

// SetLoggerFormat adjusts the format used when rendering log entries
func SetLoggerFormat(logFormat LogFormat) error {
	switch logFormat {
	case JSON, HUMAN:
		log = newLogger(logFormat).Level(log.GetLevel())
	default:
		return fmt.Errorf("invalid log format: log_format=%v", logFormat)
	}

	return nil
}

// SetLoggerLevel takes the string version of the name and sets the current level
func SetLoggerLevel(levelName string) error {
	switch levelName {
	case "DEBUG":
		log = log.Level(zerolog.DebugLevel)
	case "INFO":
		log = log.Level(zerolog.InfoLevel)
	case "WARNING":
		log = log.Level(zerolog.WarnLevel)
	case "ERROR":
		log = log.Level(zerolog.ErrorLevel)
	case "CRITICAL":
		log = log.Level(zerolog.FatalLevel)
	default:
		return fmt.Errorf("invalid log level: level=%q", levelName)
	}

	return nil
}

// GetLoggerLevel returns the current logger level name
func GetLoggerLevel() string {
	switch log.GetLevel() {
	case zerolog.DebugLevel:
		return "DEBUG"
	case zerolog.InfoLevel:
		return "INFO"
	case zerolog.WarnLevel:
		return "WARNING"
	case zerolog.ErrorLevel:
		return "ERROR"
	case zerolog.FatalLevel:
		return "CRITICAL"
	default:
		return "INFO"
	}
}

// Sanitize masks secret-shaped substrings in a message so tokens and
// matched secret values never end up in the logs verbatim
func Sanitize(msg string) string {
	return secretShaped.ReplaceAllString(msg, "***")
}

// Debug emits a DEBUG level log
func Debug(msg string, a ...any) {
	log.Debug().Msg(Sanitize(fmt.Sprintf(msg, a...)))
}

// Info emits an INFO level log
func Info(msg string, a ...any) {
	log.Info().Msg(Sanitize(fmt.Sprintf(msg, a...)))
}

// Warning emits a WARNING level log
func Warning(msg string, a ...any) {
	log.Warn().Msg(Sanitize(fmt.Sprintf(msg, a...)))
}

// Error emits an ERROR level log
func Error(msg string, a ...any) {
	log.Error().Msg(Sanitize(fmt.Sprintf(msg, a...)))
}

// Fatal emits a CRITICAL level log and stops the program
func Fatal(msg string, a ...any) {
	log.Fatal().Msg(Sanitize(fmt.Sprintf(msg, a...)))
}
