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

package database

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/suzuito/sb-data-sandbox/utils"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "DEBUG"
	}
}

// Logger is the leveled, key-value logging contract used by this package.
// Fields are alternating key-value pairs.
type Logger interface {
	SetLevel(LogLevel)
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

var (
	globalLogger   Logger
	globalLoggerMu sync.RWMutex
)

// InitLogger installs a custom logger; the first call wins.
func InitLogger(log Logger) {
	if log == nil {
		return
	}
	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = log
	}
}

// GetLogger returns the installed logger, creating the logrus-backed default
// on first use.
func GetLogger() Logger {
	globalLoggerMu.RLock()
	l := globalLogger
	globalLoggerMu.RUnlock()
	if l != nil {
		return l
	}

	globalLoggerMu.Lock()
	defer globalLoggerMu.Unlock()
	if globalLogger == nil {
		globalLogger = &logrusAdapter{logger: utils.NewLogger("DATABASE")}
	}
	return globalLogger
}

// logrusAdapter maps the key-value Logger contract onto logrus fields.
type logrusAdapter struct {
	logger *utils.Logger
}

func (l *logrusAdapter) entry(fields []interface{}) *logrus.Entry {
	if len(fields) == 0 {
		return logrus.NewEntry(l.logger)
	}
	kv := make(logrus.Fields, len(fields)/2)
	for i := 0; i+1 < len(fields); i += 2 {
		kv[fmt.Sprintf("%v", fields[i])] = fields[i+1]
	}
	return l.logger.WithFields(kv)
}

func (l *logrusAdapter) Debug(msg string, fields ...interface{}) { l.entry(fields).Debug(msg) }

func (l *logrusAdapter) Info(msg string, fields ...interface{}) { l.entry(fields).Info(msg) }

func (l *logrusAdapter) Warn(msg string, fields ...interface{}) { l.entry(fields).Warn(msg) }

func (l *logrusAdapter) Error(msg string, fields ...interface{}) { l.entry(fields).Error(msg) }

func (l *logrusAdapter) SetLevel(level LogLevel) {
	utils.SetLoggerLevel("DATABASE", strings.ToLower(level.String()))
}
