package sendfile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const chunkSize = 32 << 10

// stream writes the headers and body for a Stream decision. The first
// window is opened and its first chunk read before the status line is
// committed, so open failures still produce a proper error response.
func (s *Sender) stream(w http.ResponseWriter, r *http.Request, res Resolution, d Stream) {
	h := w.Header()
	status := http.StatusOK

	var parts *multipartPlan
	switch {
	case d.Multipart:
		parts = newMultipartPlan(h.Get("Content-Type"), d)
		h.Set("Content-Type", "multipart/byteranges; boundary="+parts.boundary)
		if cd := attachment(filepath.Base(res.Path)); cd != "" {
			h.Set("Content-Disposition", cd)
		}
		h.Set("Content-Length", strconv.FormatInt(parts.size(), 10))
		status = http.StatusPartialContent
	case d.Partial:
		h.Set("Content-Range", contentRange(d.Windows[0], d.Size))
		h.Set("Content-Length", strconv.FormatInt(d.Windows[0].Len(), 10))
		status = http.StatusPartialContent
	default:
		h.Set("Content-Length", strconv.FormatInt(d.Size, 10))
	}

	commit := func() {
		if s.opts.Hooks.OnHeaders != nil {
			s.opts.Hooks.OnHeaders(h, res.Path, res.Stat)
		}
		w.WriteHeader(status)
	}

	if r.Method == http.MethodHead {
		commit()
		return
	}

	ctx := r.Context()
	first, head, err := s.prime(ctx, res.Path, d.Offset, d.Windows[0])
	if err != nil {
		s.fail(w, r, statError(err))
		return
	}

	commit()

	out := &sink{w: w}
	buf := make([]byte, chunkSize)
	if parts == nil {
		err = copyWindow(ctx, out, first, head, d.Windows[0].Len(), buf)
	} else {
		err = s.copyParts(ctx, out, parts, res.Path, first, head, buf)
	}
	if err != nil {
		s.abort(w, r, out, err)
	}
}

// attachment formats an attachment Content-Disposition. Printable ASCII
// names are always quoted; anything else uses the RFC 2231 form.
func attachment(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return mime.FormatMediaType("attachment", map[string]string{"filename": name})
		}
	}
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `attachment; filename="` + r.Replace(name) + `"`
}

// open returns a reader over win, shifted by offset, passed through the
// OnStream hook.
func (s *Sender) open(ctx context.Context, name string, offset int64, win ByteWindow) (io.ReadCloser, error) {
	rc, err := s.fs.Open(ctx, name, offset+win.Start, offset+win.End)
	if err != nil {
		return nil, err
	}
	if s.opts.Hooks.OnStream != nil {
		rc = s.opts.Hooks.OnStream(rc)
	}
	return rc, nil
}

// prime opens win and reads its first chunk.
func (s *Sender) prime(ctx context.Context, name string, offset int64, win ByteWindow) (io.ReadCloser, []byte, error) {
	rc, err := s.open(ctx, name, offset, win)
	if err != nil {
		return nil, nil, err
	}

	head := make([]byte, min(int64(chunkSize), win.Len()))
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		_ = rc.Close()
		return nil, nil, err
	}
	return rc, head[:n], nil
}

func (s *Sender) copyParts(ctx context.Context, out io.Writer, plan *multipartPlan, name string, first io.ReadCloser, head, buf []byte) error {
	mw := multipart.NewWriter(out)
	if err := mw.SetBoundary(plan.boundary); err != nil {
		_ = first.Close()
		return err
	}

	for i, win := range plan.windows {
		rc := first
		if i > 0 {
			var err error
			if rc, err = s.open(ctx, name, plan.offset, win); err != nil {
				return err
			}
			head = nil
		}

		pw, err := mw.CreatePart(plan.header(win))
		if err != nil {
			_ = rc.Close()
			return err
		}
		if err := copyWindow(ctx, pw, rc, head, win.Len(), buf); err != nil {
			return err
		}
	}
	return mw.Close()
}

// copyWindow writes head and then the rest of rc to dst, n bytes in
// total at most. rc is always closed.
func copyWindow(ctx context.Context, dst io.Writer, rc io.ReadCloser, head []byte, n int64, buf []byte) error {
	defer func() {
		if err := rc.Close(); err != nil {
			slog.Warn("failed to close file stream", "error", err)
		}
	}()

	if len(head) > 0 {
		if _, err := dst.Write(head); err != nil {
			return err
		}
	}

	src := io.LimitReader(rc, n-int64(len(head)))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		m, rerr := src.Read(buf)
		if m > 0 {
			if _, err := dst.Write(buf[:m]); err != nil {
				return err
			}
		}
		if errors.Is(rerr, io.EOF) {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// abort handles a failure after the status line was sent. Client
// disconnects are normal; anything else is reported with HeadersSent set
// and the response is left truncated.
func (s *Sender) abort(w http.ResponseWriter, r *http.Request, out *sink, err error) {
	if out.err != nil || r.Context().Err() != nil ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		slog.Debug("response aborted", "path", r.URL.Path, "error", err)
		return
	}

	e := newError(http.StatusInternalServerError, ErrInternal, err)
	e.HeadersSent = true
	s.fail(w, r, e)
}

// sink records the first write error so transport failures can be told
// apart from read failures.
type sink struct {
	w   io.Writer
	err error
}

func (s *sink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil && s.err == nil {
		s.err = err
	}
	return n, err
}

// multipartPlan describes a multipart/byteranges body.
type multipartPlan struct {
	boundary    string
	contentType string
	windows     []ByteWindow
	offset      int64
	total       int64
}

func newMultipartPlan(contentType string, d Stream) *multipartPlan {
	return &multipartPlan{
		boundary:    uuid.NewString(),
		contentType: contentType,
		windows:     d.Windows,
		offset:      d.Offset,
		total:       d.Size,
	}
}

func (p *multipartPlan) header(win ByteWindow) textproto.MIMEHeader {
	h := textproto.MIMEHeader{
		"Content-Range": {contentRange(win, p.total)},
	}
	if p.contentType != "" {
		h.Set("Content-Type", p.contentType)
	}
	return h
}

// size returns the exact length of the body by framing it against a
// counting writer.
func (p *multipartPlan) size() int64 {
	var cw countingWriter
	mw := multipart.NewWriter(&cw)
	_ = mw.SetBoundary(p.boundary)
	for _, win := range p.windows {
		_, _ = mw.CreatePart(p.header(win))
		cw += countingWriter(win.Len())
	}
	_ = mw.Close()
	return int64(cw)
}

type countingWriter int64

func (c *countingWriter) Write(p []byte) (int, error) {
	*c += countingWriter(len(p))
	return len(p), nil
}
