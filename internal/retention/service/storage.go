package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/azureblob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/memblob"
	_ "gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	apperrors "github.com/allisson/trustlog/internal/errors"
	retentionDomain "github.com/allisson/trustlog/internal/retention/domain"
)

// Storage is an archive blob backend.
type Storage interface {
	// Put creates key with the bytes produced by write. A failed write leaves
	// no blob behind.
	Put(ctx context.Context, key string, write func(w io.Writer) error) error

	Open(ctx context.Context, key string) (io.ReadCloser, error)

	Exists(ctx context.Context, key string) (bool, error)

	Close() error
}

// BlobStorage stores archives in a gocloud bucket.
type BlobStorage struct {
	bucket *blob.Bucket
}

// OpenBlobStorage opens a bucket URL (file://, mem://, s3://, gs://,
// azblob://). Local directories are created when missing.
func OpenBlobStorage(ctx context.Context, bucketURL string) (*BlobStorage, error) {
	if dir := fileURLDir(bucketURL); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, apperrors.Wrap(err, "failed to create archive directory")
		}
	}
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open archive bucket")
	}
	return &BlobStorage{bucket: bucket}, nil
}

// NewBlobStorage wraps an open bucket.
func NewBlobStorage(bucket *blob.Bucket) *BlobStorage {
	return &BlobStorage{bucket: bucket}
}

func (s *BlobStorage) Put(ctx context.Context, key string, write func(w io.Writer) error) error {
	// Cancelling the writer context before Close discards the partial blob.
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := s.bucket.NewWriter(writeCtx, key, &blob.WriterOptions{ContentType: "application/octet-stream"})
	if err != nil {
		return translateBlobError(err, "failed to create archive blob")
	}
	if err := write(w); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return translateBlobError(err, "failed to finalize archive blob")
	}
	return nil
}

func (s *BlobStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, translateBlobError(err, "failed to open archive blob")
	}
	return r, nil
}

func (s *BlobStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.bucket.Exists(ctx, key)
	if err != nil {
		return false, translateBlobError(err, "failed to stat archive blob")
	}
	return ok, nil
}

// Delete removes key. A missing key is not an error.
func (s *BlobStorage) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return translateBlobError(err, "failed to delete archive blob")
	}
	return nil
}

func (s *BlobStorage) Close() error {
	return s.bucket.Close()
}

// remover is implemented by backends that can drop a blob again.
type remover interface {
	Delete(ctx context.Context, key string) error
}

// WORMStorage refuses to replace existing blobs. On a local directory the
// written files are also made read-only.
type WORMStorage struct {
	inner Storage
	dir   string
}

// NewWORMStorage wraps inner. dir is the local root of inner, or empty.
func NewWORMStorage(inner Storage, dir string) *WORMStorage {
	return &WORMStorage{inner: inner, dir: dir}
}

func (s *WORMStorage) Put(ctx context.Context, key string, write func(w io.Writer) error) error {
	exists, err := s.inner.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		return retentionDomain.ErrWORMOverwrite
	}
	if err := s.inner.Put(ctx, key, write); err != nil {
		return err
	}
	if s.dir != "" {
		if err := os.Chmod(filepath.Join(s.dir, filepath.FromSlash(key)), 0o444); err != nil {
			return apperrors.Wrap(err, "failed to seal archive file")
		}
	}
	return nil
}

func (s *WORMStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.inner.Open(ctx, key)
}

func (s *WORMStorage) Exists(ctx context.Context, key string) (bool, error) {
	return s.inner.Exists(ctx, key)
}

func (s *WORMStorage) Close() error {
	return s.inner.Close()
}

// HybridStorage writes to the primary backend and replicates to the
// secondary. Reads prefer the primary. When replication fails the primary
// blob is deleted again; a primary that cannot delete (WORM) keeps it and
// the error is returned all the same.
type HybridStorage struct {
	primary   Storage
	secondary Storage
}

// NewHybridStorage combines two backends.
func NewHybridStorage(primary, secondary Storage) *HybridStorage {
	return &HybridStorage{primary: primary, secondary: secondary}
}

func (s *HybridStorage) Put(ctx context.Context, key string, write func(w io.Writer) error) error {
	if err := s.primary.Put(ctx, key, write); err != nil {
		return err
	}
	r, err := s.primary.Open(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		_ = r.Close()
	}()
	err = s.secondary.Put(ctx, key, func(w io.Writer) error {
		_, err := io.Copy(w, r)
		return err
	})
	if err == nil {
		return nil
	}
	if rm, ok := s.primary.(remover); ok {
		if delErr := rm.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			return errors.Join(err, delErr)
		}
	}
	return err
}

func (s *HybridStorage) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	r, err := s.primary.Open(ctx, key)
	if err == nil {
		return r, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}
	return s.secondary.Open(ctx, key)
}

func (s *HybridStorage) Exists(ctx context.Context, key string) (bool, error) {
	ok, err := s.primary.Exists(ctx, key)
	if err != nil || ok {
		return ok, err
	}
	return s.secondary.Exists(ctx, key)
}

// Close is a no-op: both halves are owned by Backends.
func (s *HybridStorage) Close() error {
	return nil
}

// BackendURLs configures the archive backends. Empty URLs leave the backend
// unavailable.
type BackendURLs struct {
	Local string
	WORM  string
	Cloud string
	// TapeSpoolDir is a directory drained by an external tape writer.
	TapeSpoolDir string
}

// Backends resolves policy backends to storages.
type Backends struct {
	stores map[retentionDomain.BackendKind]Storage
}

// NewBackends builds a resolver from already opened storages.
func NewBackends(stores map[retentionDomain.BackendKind]Storage) *Backends {
	return &Backends{stores: stores}
}

// OpenBackends opens every configured backend. Hybrid is available when both
// local and cloud are.
func OpenBackends(ctx context.Context, urls BackendURLs) (*Backends, error) {
	stores := make(map[retentionDomain.BackendKind]Storage)
	closeAll := func() {
		for _, s := range stores {
			_ = s.Close()
		}
	}

	open := func(kind retentionDomain.BackendKind, bucketURL string) (*BlobStorage, error) {
		if bucketURL == "" {
			return nil, nil
		}
		s, err := OpenBlobStorage(ctx, bucketURL)
		if err != nil {
			closeAll()
			return nil, apperrors.Wrapf(err, "backend %s", kind)
		}
		return s, nil
	}

	local, err := open(retentionDomain.BackendLocal, urls.Local)
	if err != nil {
		return nil, err
	}
	if local != nil {
		stores[retentionDomain.BackendLocal] = local
	}

	worm, err := open(retentionDomain.BackendWORM, urls.WORM)
	if err != nil {
		return nil, err
	}
	if worm != nil {
		stores[retentionDomain.BackendWORM] = NewWORMStorage(worm, fileURLDir(urls.WORM))
	}

	cloud, err := open(retentionDomain.BackendCloud, urls.Cloud)
	if err != nil {
		return nil, err
	}
	if cloud != nil {
		stores[retentionDomain.BackendCloud] = cloud
	}

	if urls.TapeSpoolDir != "" {
		tape, err := open(retentionDomain.BackendTape, "file://"+filepath.ToSlash(urls.TapeSpoolDir))
		if err != nil {
			return nil, err
		}
		stores[retentionDomain.BackendTape] = tape
	}

	if local != nil && cloud != nil {
		stores[retentionDomain.BackendHybrid] = NewHybridStorage(local, cloud)
	}
	return &Backends{stores: stores}, nil
}

// Get returns the storage of kind or ErrBackendUnavailable.
func (b *Backends) Get(kind retentionDomain.BackendKind) (Storage, error) {
	s, ok := b.stores[kind]
	if !ok {
		return nil, apperrors.Wrapf(retentionDomain.ErrBackendUnavailable, "%s", kind)
	}
	return s, nil
}

// Available reports whether kind is configured.
func (b *Backends) Available(kind retentionDomain.BackendKind) bool {
	_, ok := b.stores[kind]
	return ok
}

// Close closes every backend.
func (b *Backends) Close() error {
	var errs []error
	for _, s := range b.stores {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}

func fileURLDir(bucketURL string) string {
	u, err := url.Parse(bucketURL)
	if err != nil || u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

func translateBlobError(err error, msg string) error {
	if gcerrors.Code(err) == gcerrors.NotFound {
		return apperrors.Wrap(apperrors.ErrNotFound, msg)
	}
	return apperrors.Wrap(err, msg)
}
