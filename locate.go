package sendfile

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"path/filepath"
)

var errDirectory = errors.New("directory listing is not allowed")

// locate maps a candidate to a concrete file. A non-nil Decision ends the
// request.
func (s *Sender) locate(ctx context.Context, w http.ResponseWriter, r *http.Request, cand Candidate) (Resolution, Decision) {
	if cand.TrailingSlash && len(s.opts.Index.Names()) > 0 {
		return s.locateIndex(ctx, cand.Path)
	}

	stat, err := s.fs.Stat(ctx, cand.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !cand.TrailingSlash && filepath.Ext(cand.Path) == "" {
			return s.locateExtension(ctx, cand.Path, err)
		}
		return Resolution{}, Failure{Err: statError(err)}
	}

	if stat.IsDir {
		return Resolution{}, s.directory(w, r, cand)
	}

	return Resolution{Path: cand.Path, Stat: stat}, nil
}

// locateIndex tries each index name under dir. Directories among the
// candidates are skipped.
func (s *Sender) locateIndex(ctx context.Context, dir string) (Resolution, Decision) {
	var lastErr error
	for _, name := range s.opts.Index.Names() {
		p := filepath.Join(dir, name)
		stat, err := s.fs.Stat(ctx, p)
		if err != nil {
			lastErr = err
			continue
		}
		if stat.IsDir {
			lastErr = nil
			continue
		}
		return Resolution{Path: p, Stat: stat}, nil
	}
	return Resolution{}, Failure{Err: exhausted(lastErr)}
}

// locateExtension tries base with each configured extension appended.
func (s *Sender) locateExtension(ctx context.Context, base string, notFound error) (Resolution, Decision) {
	lastErr := notFound
	for _, ext := range s.opts.Extensions.List() {
		p := base + "." + ext
		stat, err := s.fs.Stat(ctx, p)
		if err != nil {
			lastErr = err
			continue
		}
		if stat.IsDir {
			lastErr = nil
			continue
		}
		return Resolution{Path: p, Stat: stat}, nil
	}
	return Resolution{}, Failure{Err: exhausted(lastErr)}
}

func exhausted(lastErr error) *Error {
	if lastErr != nil {
		return statError(lastErr)
	}
	return newError(http.StatusNotFound, ErrNotFound, nil)
}

func (s *Sender) directory(w http.ResponseWriter, r *http.Request, cand Candidate) Decision {
	if s.opts.Hooks.OnDirectory != nil {
		s.opts.Hooks.OnDirectory(w, r, cand.Path)
		return delegated{}
	}
	if cand.TrailingSlash {
		return Failure{Err: newError(http.StatusForbidden, ErrForbidden, errDirectory)}
	}
	return Redirect{Location: redirectLocation(cand.RawPath)}
}
