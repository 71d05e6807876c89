/*
 * Copyright 2025 suzuito.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Logger is the logrus logger used across the project.
type Logger = logrus.Logger

var (
	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
	defaultLevel     = parseLevel(EnvDefaultString("LOG_LEVEL", "info"))
)

// NewLogger returns the named logger, creating it on first use. Loggers are
// shared by name so that SetLoggerLevel affects every holder.
func NewLogger(name string) *Logger {
	loggerRegistryMu.RLock()
	l, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if ok {
		return l
	}

	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if l, ok := loggerRegistry[name]; ok {
		return l
	}

	l = logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(defaultLevel)
	l.SetFormatter(&prefixFormatter{
		name: name,
		inner: &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		},
	})
	loggerRegistry[name] = l
	return l
}

// SetLoggerLevel changes the level of the named logger. Unknown level
// strings fall back to info.
func SetLoggerLevel(name, level string) {
	NewLogger(name).SetLevel(parseLevel(level))
}

func parseLevel(level string) logrus.Level {
	parsed, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

type prefixFormatter struct {
	name  string
	inner logrus.Formatter
}

func (f *prefixFormatter) Format(e *logrus.Entry) ([]byte, error) {
	clone := *e
	clone.Message = fmt.Sprintf("[%s] %s", f.name, e.Message)
	return f.inner.Format(&clone)
}

// EnvDefaultString returns the env var value or the given default.
func EnvDefaultString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

// EnvDefaultBool returns the env var parsed as a bool, or the given default.
func EnvDefaultBool(key string, def bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
