package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/frmr"
)

var _ frmr.ToolService = (*ToolService)(nil)

// ToolService is a mock implementation of frmr.ToolService.
type ToolService struct {
	ToolsFn    func() []*frmr.Tool
	CallToolFn func(ctx context.Context, name string, args json.RawMessage) (any, error)
}

func (s *ToolService) Tools() []*frmr.Tool {
	return s.ToolsFn()
}

func (s *ToolService) CallTool(ctx context.Context, name string, args json.RawMessage) (any, error) {
	return s.CallToolFn(ctx, name, args)
}
