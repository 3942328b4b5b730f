package sendfile

import (
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
)

// Sender serves files from a FileSystem. It is immutable after New and
// safe for concurrent use.
type Sender struct {
	fs   FileSystem
	opts Options
}

// New returns a Sender reading from fsys. The options are copied and
// validated.
func New(fsys FileSystem, opts Options) (*Sender, error) {
	if fsys == nil {
		return nil, ErrNoFileSystem
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Sender{fs: fsys, opts: opts}, nil
}

// Options returns a copy of the sender's options.
func (s *Sender) Options() Options {
	return s.opts
}

// ServeHTTP serves the file named by the request's escaped URL path.
func (s *Sender) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Send(w, r, r.URL.EscapedPath())
}

// Send serves the file named by p, a percent-encoded path that may carry
// a query string. Exactly one response is produced unless a hook takes
// over.
func (s *Sender) Send(w http.ResponseWriter, r *http.Request, p string) {
	cand, err := ResolvePath(p, &s.opts)
	if err != nil {
		s.fail(w, r, AsError(err))
		return
	}

	res, d := s.locate(r.Context(), w, r, cand)
	if d == nil {
		d = s.evaluate(w.Header(), r, &res)
	}
	s.respond(w, r, res, d)
}

// Decide runs the pipeline up to its terminal decision without writing a
// response. The headers the decision would carry are set on h. An
// OnDirectory hook sees a writer that discards its output.
func (s *Sender) Decide(r *http.Request, h http.Header, p string) (Resolution, Decision) {
	cand, err := ResolvePath(p, &s.opts)
	if err != nil {
		return Resolution{}, Failure{Err: AsError(err)}
	}

	res, d := s.locate(r.Context(), &headerOnly{h: h}, r, cand)
	if d == nil {
		d = s.evaluate(h, r, &res)
	}
	return res, d
}

func (s *Sender) evaluate(h http.Header, r *http.Request, res *Resolution) Decision {
	if s.opts.Hooks.OnFile != nil {
		s.opts.Hooks.OnFile(res)
	}

	v := s.setEntityHeaders(h, *res)
	if d := evaluatePreconditions(r.Header, v); d != nil {
		return d
	}
	return s.planRange(r.Header, res.Stat, v)
}

func (s *Sender) respond(w http.ResponseWriter, r *http.Request, res Resolution, d Decision) {
	switch d := d.(type) {
	case delegated:
	case Redirect:
		s.redirect(w, r, d.Location)
	case NotModified:
		stripContentHeaders(w.Header())
		w.WriteHeader(http.StatusNotModified)
	case PreconditionFailed:
		s.fail(w, r, newError(http.StatusPreconditionFailed, ErrPreconditionFailed, nil))
	case RangeNotSatisfiable:
		e := newError(http.StatusRequestedRangeNotSatisfiable, ErrRangeNotSatisfiable, nil)
		e.Header = http.Header{"Content-Range": {unsatisfiedRange(d.Size)}}
		s.fail(w, r, e)
	case Failure:
		s.fail(w, r, d.Err)
	case Stream:
		s.stream(w, r, res, d)
	default:
		s.fail(w, r, newError(http.StatusInternalServerError, ErrInternal, fmt.Errorf("unknown decision %T", d)))
	}
}

// ResetHeader removes every header from h and applies the fields carried
// by e. Error renderers call it before writing their own body.
func ResetHeader(h http.Header, e *Error) {
	clear(h)
	for k, vs := range e.Header {
		h[k] = append([]string(nil), vs...)
	}
}

func (s *Sender) fail(w http.ResponseWriter, r *http.Request, e *Error) {
	if s.opts.Hooks.OnError != nil {
		s.opts.Hooks.OnError(w, r, e)
		return
	}

	if e.Status >= http.StatusInternalServerError {
		slog.Error("send failed", "path", r.URL.Path, "status", e.Status, "error", e)
	}
	if e.HeadersSent {
		return
	}

	body := http.StatusText(e.Status)
	h := w.Header()
	ResetHeader(h, e)
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Content-Security-Policy", "default-src 'none'")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(e.Status)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, body)
	}
}

const redirectHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Redirecting</title>
</head>
<body>
<pre>Redirecting to <a href="%[1]s">%[1]s</a></pre>
</body>
</html>
`

func (s *Sender) redirect(w http.ResponseWriter, r *http.Request, location string) {
	body := fmt.Sprintf(redirectHTML, html.EscapeString(location))

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	h.Set("Content-Security-Policy", "default-src 'none'")
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Location", location)
	w.WriteHeader(http.StatusMovedPermanently)
	if r.Method != http.MethodHead {
		_, _ = io.WriteString(w, body)
	}
}

// headerOnly is a ResponseWriter that keeps headers and discards the
// rest. Decide uses it so directory hooks cannot write a response.
type headerOnly struct {
	h http.Header
}

func (n *headerOnly) Header() http.Header         { return n.h }
func (n *headerOnly) Write(p []byte) (int, error) { return len(p), nil }
func (n *headerOnly) WriteHeader(int)             {}
