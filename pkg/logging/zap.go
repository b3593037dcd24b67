/*
Copyright Guardlabs Contributors. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package logging

import (
	"go.uber.org/zap"
)

type zapLogger struct {
	sugar *zap.SugaredLogger
}

func (zl *zapLogger) Log(level LogLevel, text string, args ...interface{}) {
	switch level {
	case LevelDebug:
		zl.sugar.Debugw(text, args...)
	case LevelInfo:
		zl.sugar.Infow(text, args...)
	case LevelWarn:
		zl.sugar.Warnw(text, args...)
	default:
		zl.sugar.Errorw(text, args...)
	}
}

// FromZap adapts a *zap.Logger to the Logger interface, mapping levels
// one to one. The key/value args pass through as zap sugared fields.
func FromZap(z *zap.Logger) Logger {
	return &zapLogger{
		// Skip the adapter frame so caller locations are reported.
		sugar: z.WithOptions(zap.AddCallerSkip(1)).Sugar(),
	}
}
