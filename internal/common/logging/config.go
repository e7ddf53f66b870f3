package logging

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	FormatText      = "text"
	FormatColourful = "colourful"
	FormatJson      = "json"
	FormatPlain     = "plain"
)

var validLogFormats = map[string]bool{
	FormatText:      true,
	FormatColourful: true,
	FormatJson:      true,
	FormatPlain:     true,
}

// Config defines htapbench logging configuration.
type Config struct {
	// Defines configuration for console logging on stderr
	Console struct {
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, one of text, colourful, json or plain
		Format string `yaml:"format"`
	} `yaml:"console"`
	// Defines configuration for file logging
	File struct {
		// Whether file logging is enabled.
		Enabled bool `yaml:"enabled"`
		// Log level, e.g. INFO, ERROR etc
		Level string `yaml:"level"`
		// Logging format, either text or json
		Format string `yaml:"format"`
		// The Location of the logfile on disk
		LogFile string `yaml:"logfile"`
		// Log Rotation Options
		Rotation struct {
			// Whether Log Rotation is enabled
			Enabled bool `yaml:"enabled"`
			// Maximum size in megabytes of the log file before it gets rotated
			MaxSizeMb int `yaml:"maxSizeMb"`
			// Maximum number of old log files to retain
			MaxBackups int `yaml:"maxBackups"`
			// Maximum number of days to retain old log files
			MaxAgeDays int `yaml:"maxAgeDays"`
			// Whether to compress rotated log files
			Compress bool `yaml:"compress"`
		} `yaml:"rotation"`
	} `yaml:"file"`
}

func validate(c Config) error {
	_, err := logrus.ParseLevel(c.Console.Level)
	if err != nil {
		return errors.WithStack(err)
	}

	err = validateLogFormat(c.Console.Format)
	if err != nil {
		return err
	}

	if c.File.Enabled {
		_, err := logrus.ParseLevel(c.File.Level)
		if err != nil {
			return errors.WithStack(err)
		}

		err = validateLogFormat(c.File.Format)
		if err != nil {
			return err
		}

		if c.File.LogFile == "" {
			return errors.New("file.logfile must be set when file logging is enabled")
		}

		rotation := c.File.Rotation
		if rotation.Enabled {
			if rotation.MaxSizeMb <= 0 {
				return errors.New("rotation.maxSizeMb must be greater than zero")
			}
			if rotation.MaxBackups <= 0 {
				return errors.New("rotation.maxBackups must be greater than zero")
			}
			if rotation.MaxAgeDays <= 0 {
				return errors.New("rotation.maxAgeDays must be greater than zero")
			}
		}
	}

	return nil
}

func validateLogFormat(f string) error {
	_, ok := validLogFormats[f]
	if !ok {
		formats := make([]string, 0, len(validLogFormats))
		for k := range validLogFormats {
			formats = append(formats, k)
		}
		sort.Strings(formats)
		return errors.Errorf("unknown log format: %s.  Valid formats are %s", f, formats)
	}
	return nil
}
