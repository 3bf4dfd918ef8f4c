package drive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"carf-backend/internal/model"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// zipReadConcurrency bounds parallel blob reads while building an archive.
const zipReadConcurrency = 4

// WriteZip streams a zip archive of every file under the gencode's
// subfolders to w, entries laid out as SP1/name, SP2/name, ... Returns
// ErrFolderNotFound when the gencode was never provisioned.
//
// Blob reads fan out through a bounded errgroup; the archive itself is
// written sequentially in slot order since zip output cannot interleave.
func (s *Store) WriteZip(ctx context.Context, gencode string, w io.Writer) error {
	if _, err := s.GencodeFolder(ctx, gencode); err != nil {
		return err
	}

	files, err := s.repo.ListFilesByGencode(ctx, gencode)
	if err != nil {
		return err
	}

	contents := make([][]byte, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(zipReadConcurrency)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := afero.ReadFile(s.fs, s.blobPath(f.Gencode, f.ID))
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", f.Name, err)
			}
			contents[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	for i, f := range files {
		entry, err := zw.Create(model.DocTypeFolders[f.DocType] + "/" + f.Name)
		if err != nil {
			return fmt.Errorf("failed to add zip entry for %s: %w", f.Name, err)
		}
		if _, err := entry.Write(contents[i]); err != nil {
			return fmt.Errorf("failed to write zip entry for %s: %w", f.Name, err)
		}
	}
	return zw.Close()
}
