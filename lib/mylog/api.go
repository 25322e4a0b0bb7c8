package mylog

import (
	"context"
	"os"

	"github.com/MarcGrol/shopcheckout/lib/mycontext"
)

type Severity string

const (
	SeverityDebug Severity = "DEBUG"
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// New creates a logger for a component. Cloud Logging gets structured JSON lines, everything else plain text.
var New func(name string) Logger

func init() {
	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		New = newGcloudLogger
		return
	}
	New = newStandardLogger
}

// Logger writes a log line labelled with the aggregate (session, order, basket) it concerns.
type Logger interface {
	Log(ctx context.Context, traceLabel string, severity Severity, format string, a ...any)
}

func traceFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	trace, ok := ctx.Value(mycontext.CtxTraceContext{}).(string)
	if !ok {
		return ""
	}
	return trace
}
