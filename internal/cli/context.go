package cli

import (
	"context"

	"github.com/sirupsen/logrus"
)

type loggerKey struct{}

func withLogger(ctx context.Context, logger logrus.FieldLogger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFrom(ctx context.Context) logrus.FieldLogger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(logrus.FieldLogger); ok {
			return logger
		}
	}
	return discardLogger()
}
