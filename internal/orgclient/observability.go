package orgclient

import "go.uber.org/zap"

// CallEvent records metadata about a single request to the organization service.
type CallEvent struct {
	Method     string
	Path       string
	HTTPStatus int
	LatencyMs  int64
	Success    bool
	ErrorCode  string
}

// Observer receives events about service calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// LogObserver writes call events to a zap logger.
type LogObserver struct {
	logger *zap.Logger
}

func NewLogObserver(logger *zap.Logger) *LogObserver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogObserver{logger: logger}
}

func (o *LogObserver) OnCallComplete(event CallEvent) {
	fields := []zap.Field{
		zap.String("method", event.Method),
		zap.String("path", event.Path),
		zap.Int("http_status", event.HTTPStatus),
		zap.Int64("latency_ms", event.LatencyMs),
	}
	if !event.Success {
		o.logger.Warn("org_service_call", append(fields, zap.String("error_code", event.ErrorCode))...)
		return
	}
	o.logger.Debug("org_service_call", fields...)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
