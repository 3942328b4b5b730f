package sendfile

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

// ErrMalformedRange is returned by ParseRange when the header does not
// follow the bytes range grammar. Such headers are ignored.
var ErrMalformedRange = errors.New("malformed range header")

const bytesUnit = "bytes="

// ParseRange parses a Range header against an entity of size bytes.
// Windows that cannot be satisfied are dropped; if none survive the
// error is ErrRangeNotSatisfiable. The windows are returned in request
// order and are not merged.
func ParseRange(header string, size int64) ([]ByteWindow, error) {
	if !strings.HasPrefix(header, bytesUnit) {
		return nil, ErrMalformedRange
	}

	var (
		windows []ByteWindow
		seen    bool
	)
	for _, part := range strings.Split(header[len(bytesUnit):], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		seen = true

		first, last, ok := strings.Cut(part, "-")
		if !ok {
			return nil, ErrMalformedRange
		}
		first, last = strings.TrimSpace(first), strings.TrimSpace(last)

		var w ByteWindow
		if first == "" {
			n, err := parseOffset(last)
			if err != nil {
				return nil, err
			}
			if n == 0 {
				continue
			}
			w = ByteWindow{Start: max(size-n, 0), End: size - 1}
		} else {
			start, err := parseOffset(first)
			if err != nil {
				return nil, err
			}
			end := size - 1
			if last != "" {
				if end, err = parseOffset(last); err != nil {
					return nil, err
				}
			}
			w = ByteWindow{Start: start, End: min(end, size-1)}
		}

		if w.Start >= size || w.Start > w.End {
			continue
		}
		windows = append(windows, w)
	}

	if !seen {
		return nil, ErrMalformedRange
	}
	if len(windows) == 0 {
		return nil, ErrRangeNotSatisfiable
	}
	return windows, nil
}

func parseOffset(s string) (int64, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return 0, ErrMalformedRange
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrMalformedRange
	}
	return n, nil
}

// CombineRanges sorts windows by start and merges the ones that overlap
// or touch.
func CombineRanges(windows []ByteWindow) []ByteWindow {
	if len(windows) < 2 {
		return windows
	}

	sorted := slices.Clone(windows)
	slices.SortFunc(sorted, func(a, b ByteWindow) int {
		switch {
		case a.Start < b.Start:
			return -1
		case a.Start > b.Start:
			return 1
		default:
			return 0
		}
	})

	out := sorted[:1]
	for _, w := range sorted[1:] {
		last := &out[len(out)-1]
		if w.Start <= last.End+1 {
			last.End = max(last.End, w.End)
			continue
		}
		out = append(out, w)
	}
	return out
}

// servable returns the offset and length of the part of a size-byte file
// that the start and end options allow to be served.
func (s *Sender) servable(size int64) (offset, length int64) {
	offset = min(s.opts.Start, size)
	length = size - offset
	if s.opts.End != nil {
		length = min(length, *s.opts.End-offset+1)
	}
	return offset, max(length, 0)
}

// planRange turns the request's Range and If-Range headers into a Stream
// or a RangeNotSatisfiable decision.
func (s *Sender) planRange(req http.Header, stat FileStat, v validators) Decision {
	offset, length := s.servable(stat.Size)
	full := Stream{
		Windows: []ByteWindow{{Start: 0, End: length - 1}},
		Offset:  offset,
		Size:    length,
	}

	header := req.Get("Range")
	if !s.opts.AcceptRanges || header == "" {
		return full
	}
	if !rangeFresh(req.Get("If-Range"), v) {
		return full
	}

	windows, err := ParseRange(header, length)
	switch {
	case errors.Is(err, ErrRangeNotSatisfiable):
		return RangeNotSatisfiable{Size: length}
	case err != nil:
		return full
	}

	windows = CombineRanges(windows)
	return Stream{
		Windows:   windows,
		Offset:    offset,
		Size:      length,
		Partial:   true,
		Multipart: len(windows) > 1,
	}
}

func contentRange(w ByteWindow, size int64) string {
	return "bytes " + strconv.FormatInt(w.Start, 10) + "-" + strconv.FormatInt(w.End, 10) + "/" + strconv.FormatInt(size, 10)
}

func unsatisfiedRange(size int64) string {
	return "bytes */" + strconv.FormatInt(size, 10)
}
