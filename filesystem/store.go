// Package filesystem provides the file system capabilities used by
// sendfile. Store is built on afero so it serves the operating system's
// files or an in-memory tree; S3Store serves objects from a bucket.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/sagarc03/sendfile"
	"github.com/spf13/afero"
)

// Store reads files from an afero file system.
type Store struct {
	fs afero.Fs
}

var _ sendfile.FileSystem = (*Store)(nil)

// NewFileStorage creates a new Store backed by fsys.
func NewFileStorage(fsys afero.Fs) *Store {
	return &Store{fs: fsys}
}

// NewOSStorage creates a Store over the operating system's files. Writes
// through the underlying file system are rejected.
func NewOSStorage() *Store {
	return NewFileStorage(afero.NewReadOnlyFs(afero.NewOsFs()))
}

// Stat returns metadata for name. Errors wrap the underlying *fs.PathError
// so callers can match fs.ErrNotExist and syscall errnos.
func (s *Store) Stat(ctx context.Context, name string) (sendfile.FileStat, error) {
	if err := ctx.Err(); err != nil {
		return sendfile.FileStat{}, err
	}

	info, err := s.fs.Stat(name)
	if err != nil {
		return sendfile.FileStat{}, fmt.Errorf("stat: %w", err)
	}

	return toFileStat(name, info), nil
}

// Open returns a reader over the inclusive byte window [start, end] of
// name. Reads fail once ctx is done.
func (s *Store) Open(ctx context.Context, name string, start, end int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := s.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	n := max(end-start+1, 0)
	if start > 0 && n > 0 {
		if _, err := f.Seek(start, io.SeekStart); err != nil {
			closeFile(f)
			return nil, fmt.Errorf("failed to seek file: %w", err)
		}
	}

	return &windowReader{
		ctxReader: ctxReader{ctx: ctx, r: io.LimitReader(f, n)},
		c:         f,
	}, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// windowReader reads a bounded window and closes the underlying stream.
type windowReader struct {
	ctxReader
	c io.Closer
}

func (w *windowReader) Close() error {
	return w.c.Close()
}

func closeFile(f afero.File) {
	if err := f.Close(); err != nil {
		slog.Warn("failed to close file", "path", f.Name(), "err", err)
	}
}

func toFileStat(name string, info fs.FileInfo) sendfile.FileStat {
	return sendfile.FileStat{
		Size:       info.Size(),
		ModTime:    info.ModTime(),
		ChangeTime: changeTime(info),
		Identity:   identity(name, info),
		IsDir:      info.IsDir(),
	}
}
