package logger

import "github.com/ThreeDotsLabs/watermill"

// WatermillAdapter routes watermill's internal logging through ILogger.
type WatermillAdapter struct {
	log    ILogger
	fields watermill.LogFields
}

var _ watermill.LoggerAdapter = (*WatermillAdapter)(nil)

func NewWatermillAdapter(log ILogger) *WatermillAdapter {
	return &WatermillAdapter{log: log}
}

func (a *WatermillAdapter) details(fields watermill.LogFields) map[string]interface{} {
	merged := make(map[string]interface{}, len(a.fields)+len(fields))
	for k, v := range a.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return merged
}

func (a *WatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	d := a.details(fields)
	d["error"] = err
	a.log.Error("EventBus", msg, d)
}

func (a *WatermillAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Info("EventBus", msg, a.details(fields))
}

func (a *WatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debug("EventBus", msg, a.details(fields))
}

func (a *WatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debug("EventBus", msg, a.details(fields))
}

func (a *WatermillAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &WatermillAdapter{log: a.log, fields: a.details(fields)}
}
