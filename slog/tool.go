package slog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fwojciec/frmr"
)

// Ensure LoggingToolService implements frmr.ToolService.
var _ frmr.ToolService = (*LoggingToolService)(nil)

// LoggingToolService wraps a ToolService with logging of every call.
type LoggingToolService struct {
	next   frmr.ToolService
	logger *slog.Logger
}

// NewLoggingToolService creates a new LoggingToolService.
func NewLoggingToolService(next frmr.ToolService, logger *slog.Logger) *LoggingToolService {
	return &LoggingToolService{next: next, logger: logger}
}

// Tools delegates to the wrapped service.
func (s *LoggingToolService) Tools() []*frmr.Tool {
	return s.next.Tools()
}

// CallTool delegates to the wrapped service and logs the call. Failed calls
// carry their error code.
func (s *LoggingToolService) CallTool(ctx context.Context, name string, args json.RawMessage) (res any, err error) {
	defer func(begin time.Time) {
		if err != nil {
			s.logger.Info("tool call",
				"tool", name,
				"duration", time.Since(begin),
				"code", frmr.ErrorCode(err),
				"err", err,
			)
			return
		}
		s.logger.Info("tool call",
			"tool", name,
			"duration", time.Since(begin),
		)
	}(time.Now())
	return s.next.CallTool(ctx, name, args)
}
