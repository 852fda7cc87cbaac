// Package zap adapts go.uber.org/zap to the log.Logger interface.
package zap

import (
	"github.com/MohitThorat/kvserver/log"
	"go.uber.org/zap"
)

// Logger wraps a *zap.Logger to satisfy log.Logger.
type Logger struct{ L *zap.Logger }

func (z Logger) Debug(msg string, f log.Fields) { z.L.Debug(msg, zf(f)...) }
func (z Logger) Info(msg string, f log.Fields)  { z.L.Info(msg, zf(f)...) }
func (z Logger) Warn(msg string, f log.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z Logger) Error(msg string, f log.Fields) { z.L.Error(msg, zf(f)...) }

func zf(f log.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for k, v := range f {
		out = append(out, zap.Any(k, v))
	}
	return out
}

var _ log.Logger = Logger{}
