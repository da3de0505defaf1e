/*
Copyright The Volcano Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package accesslog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

const (
	OutputStdout = "stdout"
	OutputStderr = "stderr"
)

// AccessLogger writes one line per completed request.
type AccessLogger interface {
	Log(entry *AccessLogEntry) error
	Close() error
}

type AccessLoggerConfig struct {
	Enabled bool      `json:"enabled"`
	Format  LogFormat `json:"format"`
	// Output is stdout, stderr or a file path. Files are rotated.
	Output string `json:"output"`
}

func DefaultAccessLoggerConfig() *AccessLoggerConfig {
	return &AccessLoggerConfig{
		Enabled: true,
		Format:  FormatText,
		Output:  OutputStdout,
	}
}

// ApplyEnv overrides the config with ACCESS_LOG_ENABLED, ACCESS_LOG_FORMAT
// and ACCESS_LOG_OUTPUT when they are set.
func (c *AccessLoggerConfig) ApplyEnv() {
	if v, ok := os.LookupEnv("ACCESS_LOG_ENABLED"); ok {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.Enabled = enabled
		}
	}
	if v := os.Getenv("ACCESS_LOG_FORMAT"); v != "" {
		c.Format = LogFormat(strings.ToLower(v))
	}
	if v := os.Getenv("ACCESS_LOG_OUTPUT"); v != "" {
		c.Output = v
	}
}

func (c *AccessLoggerConfig) Validate() error {
	switch c.Format {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("unsupported access log format %q", c.Format)
	}
	if c.Output == "" {
		return fmt.Errorf("access log output must not be empty")
	}
	return nil
}

// NewAccessLogger builds a logger for config. A nil config uses the defaults;
// a disabled config yields a logger that drops every entry.
func NewAccessLogger(config *AccessLoggerConfig) (AccessLogger, error) {
	if config == nil {
		config = DefaultAccessLoggerConfig()
	}
	if !config.Enabled {
		return &noopAccessLogger{}, nil
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := &accessLoggerImpl{config: config}
	switch config.Output {
	case OutputStdout:
		logger.writer = os.Stdout
	case OutputStderr:
		logger.writer = os.Stderr
	default:
		file := &lumberjack.Logger{
			Filename:   config.Output,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     7,
			Compress:   true,
		}
		logger.writer = file
		logger.closer = file
	}
	return logger, nil
}

type accessLoggerImpl struct {
	config *AccessLoggerConfig

	mu     sync.Mutex
	writer io.Writer
	closer io.Closer
}

func (l *accessLoggerImpl) Log(entry *AccessLogEntry) error {
	var (
		line string
		err  error
	)
	if l.config.Format == FormatJSON {
		line, err = l.formatJSON(entry)
	} else {
		line, err = l.formatText(entry)
	}
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	_, err = io.WriteString(l.writer, line+"\n")
	return err
}

func (l *accessLoggerImpl) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func (l *accessLoggerImpl) formatJSON(entry *AccessLogEntry) (string, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// formatText renders
//
//	[time] "METHOD path proto" status totalms mode=N input_len=N tokens=N request_id=ID error=type:message
func (l *accessLoggerImpl) formatText(entry *AccessLogEntry) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] \"%s %s %s\" %d",
		entry.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		entry.Method, entry.Path, entry.Protocol, entry.StatusCode)
	if entry.Duration != nil {
		fmt.Fprintf(&b, " %dms", entry.Duration.Total)
	}
	if entry.Mode != nil {
		fmt.Fprintf(&b, " mode=%d", *entry.Mode)
	}
	if entry.InputLength > 0 {
		fmt.Fprintf(&b, " input_len=%d", entry.InputLength)
	}
	if entry.Tokens > 0 {
		fmt.Fprintf(&b, " tokens=%d", entry.Tokens)
	}
	if entry.Viterbi {
		b.WriteString(" viterbi=true")
	}
	if entry.RequestID != "" {
		fmt.Fprintf(&b, " request_id=%s", entry.RequestID)
	}
	if entry.Duration != nil && (entry.Duration.Tokenization > 0 || entry.Duration.Rendering > 0) {
		fmt.Fprintf(&b, " timings=%d+%dms", entry.Duration.Tokenization, entry.Duration.Rendering)
	}
	if entry.Error != nil {
		fmt.Fprintf(&b, " error=%s:%s", entry.Error.Type, entry.Error.Message)
	}
	return b.String(), nil
}

type noopAccessLogger struct{}

func (n *noopAccessLogger) Log(*AccessLogEntry) error { return nil }

func (n *noopAccessLogger) Close() error { return nil }
