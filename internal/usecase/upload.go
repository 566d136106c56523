package usecase

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/armstrong/internal/domain"
)

// ImageUploader persists a batch of uploads and reports their public paths
// in submission order. The first failing file aborts the rest of the batch;
// files already written are left in place.
type ImageUploader struct {
	Storage domain.FileStorage
}

func (u *ImageUploader) Store(ctx context.Context, files []domain.Upload) ([]string, error) {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		if f.Size == 0 || f.Open == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return paths, &domain.UploadIOError{File: f.Filename, Err: err}
		}
		path, err := u.storeOne(ctx, f)
		if err != nil {
			log.Error().Err(err).Str("file", f.Filename).Int("written", len(paths)).Msg("upload batch aborted")
			return paths, &domain.UploadIOError{File: f.Filename, Err: err}
		}
		log.Debug().Str("file", f.Filename).Str("path", path).Msg("upload stored")
		paths = append(paths, path)
	}
	return paths, nil
}

// StoreOne is the single-file form used by the standalone upload endpoint.
func (u *ImageUploader) StoreOne(ctx context.Context, f domain.Upload) (string, error) {
	if f.Size == 0 || f.Open == nil {
		return "", domain.Invalid("file", "empty file")
	}
	path, err := u.storeOne(ctx, f)
	if err != nil {
		return "", &domain.UploadIOError{File: f.Filename, Err: err}
	}
	return path, nil
}

func (u *ImageUploader) storeOne(ctx context.Context, f domain.Upload) (string, error) {
	if u == nil || u.Storage == nil {
		return "", errors.New("no file storage configured")
	}
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return u.Storage.Save(ctx, f.Filename, rc)
}
