package telemetry

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogAPI implements API using the log/slog package, a nil Logger uses
// slog.Default().
type SlogAPI struct {
	Logger *slog.Logger
}

func (s SlogAPI) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// attrs turns params into slog attributes. Params given as key/value pairs
// keep their keys, anything else is numbered.
func attrs(params []any) []slog.Attr {
	out := make([]slog.Attr, 0, len(params))
	if len(params)%2 == 0 {
		paired := true
		for i := 0; i < len(params); i += 2 {
			if _, ok := params[i].(string); !ok {
				paired = false
				break
			}
		}
		if paired {
			for i := 0; i < len(params); i += 2 {
				out = append(out, slog.Any(params[i].(string), params[i+1]))
			}
			return out
		}
	}
	for i, p := range params {
		if err, ok := p.(error); ok {
			out = append(out, slog.String(fmt.Sprintf("params.%d", i), err.Error()))
			continue
		}
		out = append(out, slog.Any(fmt.Sprintf("params.%d", i), p))
	}
	return out
}

func (s SlogAPI) log(level slog.Level, message string, id string, params []any) {
	list := attrs(params)
	if id != "" {
		list = append([]slog.Attr{slog.String("id", id)}, list...)
	}
	s.logger().LogAttrs(context.Background(), level, message, list...)
}

func (s SlogAPI) ReportBroken(id string, params ...any) {
	s.log(slog.LevelError, "broken component", id, params)
}

func (s SlogAPI) ReportWarning(id string, params ...any) {
	s.log(slog.LevelWarn, "warning", id, params)
}

func (s SlogAPI) ReportDebug(message string, params ...any) {
	s.log(slog.LevelDebug, message, "", params)
}

func (s SlogAPI) ReportCount(id string, count int64) {
	s.logger().Info("count", "id", id, "n", count)
}
