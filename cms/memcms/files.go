package memcms

import (
	"context"
	"fmt"
	"path"
	"strconv"

	"github.com/CrisisTextLine/stepkit/cms"
)

// SaveFile stores data under destURI, replacing the contents of an existing
// file entity with the same URI.
func (s *Store) SaveFile(ctx context.Context, data []byte, destURI string) (*cms.Entity, error) {
	existing, err := s.LoadByProperties(ctx, "file", cms.Eq("uri", destURI))
	if err != nil {
		return nil, err
	}

	txn := s.db.Txn(true)
	if err := txn.Insert(tableBlobs, &blob{URI: destURI, Data: append([]byte(nil), data...)}); err != nil {
		txn.Abort()
		return nil, fmt.Errorf("write %s: %w", destURI, err)
	}
	txn.Commit()

	size := strconv.Itoa(len(data))
	if len(existing) > 0 {
		file := existing[0]
		file.Fields["filesize"] = size
		if err := s.Save(ctx, file); err != nil {
			return nil, err
		}
		return file, nil
	}

	return s.Create(ctx, cms.NewEntity("file", map[string]any{
		"uri":      destURI,
		"filename": path.Base(destURI),
		"filesize": size,
		"status":   "1",
	}))
}

// LoadFileByURI returns the file entity stored under uri.
func (s *Store) LoadFileByURI(ctx context.Context, uri string) (*cms.Entity, error) {
	files, err := s.LoadByProperties(ctx, "file", cms.Eq("uri", uri))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", cms.ErrFileNotFound, uri)
	}
	return files[0], nil
}

// FileData returns the contents stored under uri.
func (s *Store) FileData(ctx context.Context, uri string) ([]byte, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()
	raw, err := txn.First(tableBlobs, "id", uri)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", uri, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %s", cms.ErrFileNotFound, uri)
	}
	return append([]byte(nil), raw.(*blob).Data...), nil
}
