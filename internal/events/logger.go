package events

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// levelTrace sits below slog's Debug; watermill's Trace output is very chatty.
const levelTrace = slog.LevelDebug - 4

type slogAdapter struct {
	logger *slog.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter lets watermill log through the application's slog logger.
func NewLoggerAdapter(logger *slog.Logger) watermill.LoggerAdapter {
	return &slogAdapter{logger: logger, fields: watermill.LogFields{}}
}

func (a *slogAdapter) Error(msg string, err error, fields watermill.LogFields) {
	args := a.args(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	a.logger.Error(msg, args...)
}

func (a *slogAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Info(msg, a.args(fields)...)
}

func (a *slogAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debug(msg, a.args(fields)...)
}

func (a *slogAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Log(context.Background(), levelTrace, msg, a.args(fields)...)
}

func (a *slogAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &slogAdapter{
		logger: a.logger,
		fields: a.combine(fields),
	}
}

func (a *slogAdapter) combine(fields watermill.LogFields) watermill.LogFields {
	all := make(watermill.LogFields, len(a.fields)+len(fields))
	for k, v := range a.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

func (a *slogAdapter) args(fields watermill.LogFields) []any {
	all := a.combine(fields)
	args := make([]any, 0, len(all))
	for k, v := range all {
		args = append(args, slog.Any(k, v))
	}
	return args
}
