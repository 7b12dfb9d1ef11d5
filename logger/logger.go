// Copyright (c) 2023, The OTNS Authors.
// All rights reserved.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions are met:
// 1. Redistributions of source code must retain the above copyright
//    notice, this list of conditions and the following disclaimer.
// 2. Redistributions in binary form must reproduce the above copyright
//    notice, this list of conditions and the following disclaimer in the
//    documentation and/or other materials provided with the distribution.
// 3. Neither the name of the copyright holder nor the
//    names of its contributors may be used to endorse or promote products
//    derived from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND CONTRIBUTORS "AS IS"
// AND ANY EXPRESS OR IMPLIED WARRANTIES, INCLUDING, BUT NOT LIMITED TO, THE
// IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE
// ARE DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR CONTRIBUTORS BE
// LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL, SPECIAL, EXEMPLARY, OR
// CONSEQUENTIAL DAMAGES (INCLUDING, BUT NOT LIMITED TO, PROCUREMENT OF
// SUBSTITUTE GOODS OR SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY, WHETHER IN
// CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING NEGLIGENCE OR OTHERWISE)
// ARISING IN ANY WAY OUT OF THE USE OF THIS SOFTWARE, EVEN IF ADVISED OF THE
// POSSIBILITY OF SUCH DAMAGE.

// Package logger is the ambient leveled-logging and invariant-assertion
// stack for this module, adapted from the teacher's logger package: a
// package-global zap-backed logger plus assert.* helpers that panic instead
// of failing a *testing.T, so the same invariant checks guard both
// production code (the non-reentrancy guard in mac.Core) and tests. The
// teacher's OT-specific per-node log-file plumbing and OT log-line parsing
// (nodelogger.go, parse.go) have no counterpart in this domain and are not
// reproduced; what remains is generalized into a Named sub-logger any
// mac.Core instance can acquire, mirroring nodelogger.go's per-node
// prefixing without its channel-buffered file-writing machinery.
package logger

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the teacher's OT-derived level scale; only the levels this
// module actually emits are documented, the rest are kept for ordering.
type Level int8

const (
	TraceLevel   Level = 6
	DebugLevel   Level = 5
	InfoLevel    Level = 4
	WarnLevel    Level = 2
	ErrorLevel   Level = 1
	PanicLevel   Level = 0
	FatalLevel   Level = -1
	OffLevel     Level = -2
	MinLevel           = OffLevel
	DefaultLevel       = InfoLevel
)

var (
	cfg          zap.Config
	zaplogger    *zap.Logger
	currentLevel Level
	zapLevels    = []zapcore.Level{zapcore.FatalLevel + 1, zapcore.FatalLevel, zapcore.PanicLevel,
		zapcore.ErrorLevel, zapcore.WarnLevel, zapcore.InfoLevel, zapcore.InfoLevel, zapcore.DebugLevel,
		zapcore.DebugLevel}
)

func init() {
	cfgJSON := []byte(`{
		"level": "debug",
		"outputPaths": ["stderr"],
		"errorOutputPaths": ["stderr"],
		"encoding": "console",
		"encoderConfig": {
			"messageKey": "message",
			"levelKey": "level",
			"levelEncoder": "lowercase"
		}
	}`)
	currentLevel = DefaultLevel
	if err := json.Unmarshal(cfgJSON, &cfg); err != nil {
		panic(err)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	rebuildLoggerFromCfg()
}

// SetLevel sets the process-wide log level.
func SetLevel(lv Level) {
	currentLevel = lv
}

// GetLevel reports the current process-wide log level.
func GetLevel() Level {
	return currentLevel
}

func rebuildLoggerFromCfg() {
	newLogger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	if zaplogger != nil {
		_ = zaplogger.Sync()
	}
	zaplogger = newLogger
}

func getMessage(template string, fmtArgs []interface{}) string {
	if len(fmtArgs) == 0 {
		return template
	}
	if template != "" {
		return fmt.Sprintf(template, fmtArgs...)
	}
	if len(fmtArgs) == 1 {
		if str, ok := fmtArgs[0].(string); ok {
			return str
		}
	}
	return fmt.Sprint(fmtArgs...)
}

// Logf outputs a formatted log message at the given level.
func Logf(level Level, format string, args []interface{}) {
	if level > currentLevel {
		return
	}
	timeStr := time.Now().Format("2006-01-02 15:04:05.000") + " - "
	zaplogger.Log(zapLevels[level-MinLevel], timeStr+getMessage(format, args))
}

func Tracef(format string, args ...interface{}) { Logf(TraceLevel, format, args) }
func Debugf(format string, args ...interface{}) { Logf(DebugLevel, format, args) }
func Infof(format string, args ...interface{})  { Logf(InfoLevel, format, args) }
func Warnf(format string, args ...interface{})  { Logf(WarnLevel, format, args) }
func Errorf(format string, args ...interface{}) { Logf(ErrorLevel, format, args) }
func Panicf(format string, args ...interface{}) { Logf(PanicLevel, format, args) }
func Fatalf(format string, args ...interface{}) { Logf(FatalLevel, format, args) }

// Named is a sub-logger carrying a fixed prefix, acquired once per
// mac.Core instance so that a test harness running many instances at once
// (§2 simharness) can tell their log lines apart, adapted from the
// teacher's per-node logger without its file-backed persistence.
type Named struct {
	prefix string
}

// NewNamed creates a Named logger prefixing every line with "[name] ".
func NewNamed(name string) Named {
	return Named{prefix: "[" + name + "] "}
}

func (n Named) Tracef(format string, args ...interface{}) {
	Logf(TraceLevel, n.prefix+format, args)
}

func (n Named) Debugf(format string, args ...interface{}) {
	Logf(DebugLevel, n.prefix+format, args)
}

func (n Named) Infof(format string, args ...interface{}) {
	Logf(InfoLevel, n.prefix+format, args)
}

func (n Named) Warnf(format string, args ...interface{}) {
	Logf(WarnLevel, n.prefix+format, args)
}

func (n Named) Errorf(format string, args ...interface{}) {
	Logf(ErrorLevel, n.prefix+format, args)
}

// assertLogger adapts testify's assert.TestingT to panic rather than mark a
// *testing.T failed, so the same AssertTrue/AssertEqual helpers guard
// invariants in non-test code.
type assertLogger struct{}

func (assertLogger) Errorf(format string, args ...interface{}) {
	panic(fmt.Sprintf(format, args...))
}

func AssertTrue(value bool, msgAndArgs ...interface{}) bool {
	return assert.True(assertLogger{}, value, msgAndArgs...)
}

func AssertFalse(value bool, msgAndArgs ...interface{}) bool {
	return assert.False(assertLogger{}, value, msgAndArgs...)
}

func AssertEqual(expected, actual interface{}, msgAndArgs ...interface{}) bool {
	return assert.Equal(assertLogger{}, expected, actual, msgAndArgs...)
}

func AssertNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.Nil(assertLogger{}, object, msgAndArgs...)
}

func AssertNotNil(object interface{}, msgAndArgs ...interface{}) bool {
	return assert.NotNil(assertLogger{}, object, msgAndArgs...)
}
