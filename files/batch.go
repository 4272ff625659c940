package files

import (
	"context"
	"mime/multipart"

	"golang.org/x/sync/errgroup"
)

// Upload pairs a multipart file with the directory it is stored under.
type Upload struct {
	Dir    string
	Header *multipart.FileHeader
}

// SaveAll stores the uploads concurrently. If any of them fails, the ones
// already written are deleted and the first error is returned. Results are
// in the order of uploads.
func SaveAll(ctx context.Context, s Storage, uploads []Upload) ([]Stored, error) {
	stored := make([]Stored, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	for i, u := range uploads {
		g.Go(func() error {
			res, err := Save(gctx, s, u.Dir, u.Header)
			if err != nil {
				return err
			}
			stored[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		Discard(context.WithoutCancel(ctx), s, stored)
		return nil, err
	}
	return stored, nil
}

// Discard deletes stored files on a best-effort basis. It is used when the
// records pointing at them could not be written.
func Discard(ctx context.Context, s Storage, stored []Stored) {
	for _, st := range stored {
		if st.Ref != "" {
			_ = s.Delete(ctx, st.Ref)
		}
	}
}
