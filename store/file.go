package store

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/agentcore/resources"
	"github.com/effective-security/xlog"
)

type fileStore struct {
	filename string
}

// NewFileStore returns a store backed by a JSON file.
func NewFileStore(filename string) ResourceStore {
	return &fileStore{filename: filename}
}

func (s *fileStore) Load(ctx context.Context) (*resources.RecordSet, error) {
	data, err := os.ReadFile(s.filename)
	if err != nil {
		if os.IsNotExist(err) {
			logger.ContextKV(ctx, xlog.DEBUG,
				"status", "not_found",
				"file", s.filename,
			)
			return resources.New(), nil
		}
		return nil, errors.Mark(errors.Wrapf(err, "failed to read %s", s.filename), ErrIO)
	}

	rs, err := decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", s.filename)
	}
	return rs, nil
}

func (s *fileStore) Save(ctx context.Context, rs *resources.RecordSet) error {
	data, err := resources.Encode(rs)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.filename)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.filename)+".*")
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to write %s", s.filename), ErrIO)
	}
	tmpName := tmp.Name()
	// removes the temp file if rename did not happen
	defer os.Remove(tmpName)

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = os.Chmod(tmpName, 0o600)
	}
	if err == nil {
		err = os.Rename(tmpName, s.filename)
	}
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to write %s", s.filename), ErrIO)
	}

	logger.ContextKV(ctx, xlog.DEBUG,
		"status", "saved",
		"file", s.filename,
		"kinds", rs.Kinds(),
	)
	return nil
}
