// Package state defines shared program state.
package state

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"cssw/config"
	"cssw/css"
)

type envKey struct{}

// LocalEnv keeps everything program needs in a single place.
type LocalEnv struct {
	Cfg *config.Config
	Rpt *config.Report
	Log *zap.Logger

	// decoding of non UTF-8 sources, nil for UTF-8
	CodePage  encoding.Encoding
	Overwrite bool

	start         time.Time
	restoreStdLog func()
}

func EnvFromContext(ctx context.Context) *LocalEnv {
	if env, ok := ctx.Value(envKey{}).(*LocalEnv); ok {
		return env
	}
	// this should never happen
	panic("localenv not found in context")
}

func ContextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, newLocalEnv())
}

func (e *LocalEnv) Uptime() time.Duration {
	return time.Since(e.start)
}

// NewEngine creates css engine for a single editing session using configured
// namespace and program logger.
func (e *LocalEnv) NewEngine(options ...func(*css.Engine)) *css.Engine {
	var opts []func(*css.Engine)
	if e.Cfg != nil && e.Cfg.Engine.Namespace != "" {
		opts = append(opts, css.WithNamespace(e.Cfg.Engine.Namespace))
	}
	return css.NewEngine(e.Log, append(opts, options...)...)
}

func (e *LocalEnv) RedirectStdLog() {
	if e.Log == nil {
		return
	}
	e.restoreStdLog = zap.RedirectStdLog(e.Log)
}

func (e *LocalEnv) RestoreStdLog() {
	if e.Log != nil {
		_ = e.Log.Sync()
	}
	if e.restoreStdLog != nil {
		e.restoreStdLog()
		e.restoreStdLog = nil
	}
}
