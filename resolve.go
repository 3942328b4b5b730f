package sendfile

import (
	"errors"
	"net/http"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Candidate is a decoded, confined path ready for the entry locator.
type Candidate struct {
	// Path is the native filesystem path.
	Path string
	// URLPath is the decoded request path.
	URLPath string
	// RawPath is the percent-encoded request path without its query. It
	// is used to build redirects so encoded slashes survive.
	RawPath string
	// TrailingSlash records that the request asked for a directory.
	TrailingSlash bool
}

var (
	errMalformedPath = errors.New("malformed path encoding")
	errNullByte      = errors.New("path contains a NUL byte")
	errTraversal     = errors.New("path escapes root")
	errDotfile       = errors.New("path contains a dotfile")
)

// ResolvePath decodes raw (a percent-encoded request path, optionally with
// a query string) and maps it to a filesystem path under opts.Root. It
// returns an *Error for malformed, forbidden or ignored paths.
func ResolvePath(raw string, opts *Options) (Candidate, error) {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[:i]
	}

	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return Candidate{}, newError(http.StatusBadRequest, ErrBadRequest, err)
	}
	if !utf8.ValidString(decoded) {
		return Candidate{}, newError(http.StatusBadRequest, ErrBadRequest, errMalformedPath)
	}
	if strings.IndexByte(decoded, 0) >= 0 {
		return Candidate{}, newError(http.StatusBadRequest, ErrBadRequest, errNullByte)
	}

	var (
		full  string
		parts []string
	)

	if opts.Root != "" {
		rel := decoded
		if rel != "" {
			rel = path.Clean("./" + rel)
		}
		if hasUpSegment(rel) {
			return Candidate{}, newError(http.StatusForbidden, ErrForbidden, errTraversal)
		}

		root := filepath.Clean(opts.Root)
		full = filepath.Join(root, filepath.FromSlash(rel))
		if !within(root, full) {
			return Candidate{}, newError(http.StatusForbidden, ErrForbidden, errTraversal)
		}
		if rel != "" && rel != "." {
			parts = strings.Split(rel, "/")
		}
	} else {
		if hasUpSegment(decoded) {
			return Candidate{}, newError(http.StatusForbidden, ErrForbidden, errTraversal)
		}
		full = filepath.Clean(filepath.FromSlash(decoded))
		if !filepath.IsAbs(full) {
			if abs, absErr := filepath.Abs(full); absErr == nil {
				full = abs
			}
		}
		parts = strings.Split(path.Clean(decoded), "/")
	}

	if err := checkDotfiles(parts, opts); err != nil {
		return Candidate{}, err
	}

	return Candidate{
		Path:          full,
		URLPath:       decoded,
		RawPath:       raw,
		TrailingSlash: strings.HasSuffix(decoded, "/"),
	}, nil
}

func checkDotfiles(parts []string, opts *Options) error {
	if !containsDotfile(parts) {
		return nil
	}

	access := opts.Dotfiles
	if access == DotfilesUnset {
		access = DotfilesAllow
		if isDotfile(parts[len(parts)-1]) && !opts.Hidden {
			access = DotfilesIgnore
		}
	}

	switch access {
	case DotfilesDeny:
		return newError(http.StatusForbidden, ErrForbidden, errDotfile)
	case DotfilesIgnore:
		return newError(http.StatusNotFound, ErrNotFound, errDotfile)
	default:
		return nil
	}
}

func containsDotfile(parts []string) bool {
	for _, p := range parts {
		if isDotfile(p) {
			return true
		}
	}
	return false
}

func isDotfile(segment string) bool {
	return len(segment) > 1 && segment[0] == '.' && segment != ".."
}

func hasUpSegment(p string) bool {
	for _, seg := range strings.FieldsFunc(p, isSeparator) {
		if seg == ".." {
			return true
		}
	}
	return false
}

func isSeparator(r rune) bool {
	return r == '/' || r == '\\'
}

// within reports whether target is root or lies lexically below it. Both
// paths must be clean.
func within(root, target string) bool {
	if target == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}

// redirectLocation builds the trailing-slash location for a directory
// request from its escaped path, never producing a protocol-relative URL.
// Each segment is re-escaped so %2F stays inside its segment.
func redirectLocation(rawPath string) string {
	segs := strings.Split(collapseLeadingSlashes(rawPath+"/"), "/")
	for i, seg := range segs {
		if dec, err := url.PathUnescape(seg); err == nil {
			segs[i] = url.PathEscape(dec)
		}
	}
	return strings.Join(segs, "/")
}

func collapseLeadingSlashes(s string) string {
	i := 0
	for i < len(s) && s[i] == '/' {
		i++
	}
	if i > 1 {
		return "/" + s[i:]
	}
	return s
}
