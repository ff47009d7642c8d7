package index

import (
	"context"

	"github.com/fwojciec/frmr"
)

// Health reports the readiness of the index and the state of the
// repository checkout.
func (s *Service) Health(ctx context.Context) (*frmr.Health, error) {
	h, err := query(s, func(v *view) (*frmr.Health, error) {
		return &frmr.Health{
			OK:            len(v.state.Errors) == 0,
			IndexedFiles:  len(v.state.Documents) + len(v.state.MarkdownDocs),
			MarkdownFiles: len(v.state.MarkdownDocs),
			RepoPath:      v.state.RepoPath,
			Revision:      v.state.Revision,
			BuildID:       v.state.BuildID,
			IndexedAt:     v.state.IndexedAt,
			Errors:        v.state.Errors,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	if info, err := s.Repository.Info(ctx); err != nil {
		s.logger().Warn("repository info unavailable", "err", err)
	} else {
		h.Repo = info
	}
	return h, nil
}
