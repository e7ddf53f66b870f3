package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v2"
)

const (
	defaultLogConfigPath = "config/logging.yaml"
	logConfigPathEnvVar  = "HTAPBENCH_LOG_CONFIG"
	RFC3339Milli         = "2006-01-02T15:04:05.000Z07:00"
)

// MustConfigureApplicationLogging sets up logging suitable for an application. Logging configuration is loaded from
// a filepath given by the HTAPBENCH_LOG_CONFIG environmental variable or from config/logging.yaml if this var is unset.
// Note that this function will immediately shut down the application if it fails.
func MustConfigureApplicationLogging() {
	err := ConfigureApplicationLogging()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error initializing logging: "+err.Error())
		os.Exit(1)
	}
}

// ConfigureApplicationLogging sets up logging suitable for an application. Logging configuration is loaded from
// a filepath given by the HTAPBENCH_LOG_CONFIG environmental variable or from config/logging.yaml if this var is unset.
func ConfigureApplicationLogging() error {
	configPath := getEnv(logConfigPathEnvVar, defaultLogConfigPath)
	logConfig, err := readConfig(configPath)
	if err != nil {
		return err
	}
	logger, err := newApplicationLogger(logConfig, os.Stderr)
	if err != nil {
		return err
	}
	ReplaceStdLogger(FromLogrus(logger))
	return nil
}

func newApplicationLogger(logConfig Config, console io.Writer) (*logrus.Logger, error) {
	if err := validate(logConfig); err != nil {
		return nil, err
	}

	// Console logging
	consoleLevel, err := logrus.ParseLevel(logConfig.Console.Level)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	logger.SetLevel(consoleLevel)
	logger.AddHook(&writerHook{
		writer:    console,
		formatter: newFormatter(logConfig.Console.Format),
		levels:    levelsUpTo(consoleLevel),
	})

	// File logging
	if logConfig.File.Enabled {
		fileLevel, err := logrus.ParseLevel(logConfig.File.Level)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		var out io.Writer
		if logConfig.File.Rotation.Enabled {
			out = &lumberjack.Logger{
				Filename:   logConfig.File.LogFile,
				MaxSize:    logConfig.File.Rotation.MaxSizeMb,
				MaxBackups: logConfig.File.Rotation.MaxBackups,
				MaxAge:     logConfig.File.Rotation.MaxAgeDays,
				Compress:   logConfig.File.Rotation.Compress,
			}
		} else {
			f, err := os.OpenFile(logConfig.File.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			out = f
		}
		logger.AddHook(&writerHook{
			writer:    out,
			formatter: newFormatter(logConfig.File.Format),
			levels:    levelsUpTo(fileLevel),
		})
		// The logger level gates hooks, so it has to admit the more verbose of the two outputs.
		if fileLevel > consoleLevel {
			logger.SetLevel(fileLevel)
		}
	}
	return logger, nil
}

func readConfig(configFilePath string) (Config, error) {
	yamlConfig, err := os.ReadFile(configFilePath)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read log config file")
	}

	var config Config
	err = yaml.Unmarshal(yamlConfig, &config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshall log config file")
	}
	return config, nil
}

func newFormatter(format string) logrus.Formatter {
	switch format {
	case FormatJson:
		return &logrus.JSONFormatter{TimestampFormat: RFC3339Milli}
	case FormatPlain:
		return &CommandLineFormatter{}
	case FormatColourful:
		return &logrus.TextFormatter{ForceColors: true, FullTimestamp: true, TimestampFormat: RFC3339Milli}
	default:
		return &logrus.TextFormatter{DisableColors: true, FullTimestamp: true, TimestampFormat: RFC3339Milli}
	}
}

func levelsUpTo(max logrus.Level) []logrus.Level {
	var levels []logrus.Level
	for _, l := range logrus.AllLevels {
		if l <= max {
			levels = append(levels, l)
		}
	}
	return levels
}

// writerHook writes entries at the given levels to a secondary writer.
type writerHook struct {
	writer    io.Writer
	formatter logrus.Formatter
	levels    []logrus.Level
}

func (h *writerHook) Levels() []logrus.Level {
	return h.levels
}

func (h *writerHook) Fire(entry *logrus.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(b)
	return err
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
