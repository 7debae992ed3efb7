// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package log provides the contextual, key/value logger used across every
// layer of the ledger engine. It is a thin wrapper over zap so call sites
// keep the geth-style `logger.Info("msg", "key", val, ...)` idiom instead of
// zap's structured-field API.
package log

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ModuleName identifies the subsystem a logger is scoped to, used only to
// tag output - it carries no behavior of its own.
type ModuleName string

const (
	StorageDatabase ModuleName = "storage/database"
	StateDB         ModuleName = "core/state"
	Core            ModuleName = "core"
	Consensus       ModuleName = "consensus"
	Miner           ModuleName = "miner"
	Common          ModuleName = "common"
)

// Logger is the interface every package in this module logs through.
type Logger interface {
	Trace(msg string, ctx ...interface{})
	Debug(msg string, ctx ...interface{})
	Info(msg string, ctx ...interface{})
	Warn(msg string, ctx ...interface{})
	Error(msg string, ctx ...interface{})
	New(ctx ...interface{}) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

var (
	baseOnce sync.Once
	base     *zap.Logger
)

func rootLogger() *zap.Logger {
	baseOnce.Do(func() {
		cfg := zap.NewProductionEncoderConfig()
		cfg.TimeKey = "t"
		cfg.LevelKey = "lvl"
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.Lock(os.Stderr), zapcore.DebugLevel)
		base = zap.New(core)
	})
	return base
}

// New creates a contextual logger seeded with the given key/value pairs.
func New(ctx ...interface{}) Logger {
	return &zapLogger{sugar: rootLogger().Sugar().With(ctx...)}
}

// NewModuleLogger creates a logger scoped to a subsystem module.
func NewModuleLogger(m ModuleName) Logger {
	return New("module", string(m))
}

func (l *zapLogger) Trace(msg string, ctx ...interface{}) { l.sugar.Debugw(msg, ctx...) }
func (l *zapLogger) Debug(msg string, ctx ...interface{}) { l.sugar.Debugw(msg, ctx...) }
func (l *zapLogger) Info(msg string, ctx ...interface{})  { l.sugar.Infow(msg, ctx...) }
func (l *zapLogger) Warn(msg string, ctx ...interface{})  { l.sugar.Warnw(msg, ctx...) }
func (l *zapLogger) Error(msg string, ctx ...interface{}) { l.sugar.Errorw(msg, ctx...) }

func (l *zapLogger) New(ctx ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(ctx...)}
}
