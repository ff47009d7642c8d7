package mock

import (
	"context"

	"github.com/fwojciec/frmr"
)

var _ frmr.Scanner = (*Scanner)(nil)

// Scanner is a mock implementation of frmr.Scanner.
type Scanner struct {
	ScanFn func(ctx context.Context, root string) (*frmr.Snapshot, error)
}

func (s *Scanner) Scan(ctx context.Context, root string) (*frmr.Snapshot, error) {
	return s.ScanFn(ctx, root)
}
