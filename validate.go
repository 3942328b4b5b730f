package sendfile

import (
	"encoding/binary"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ETag returns the weak entity tag for a file. It depends only on the
// size, modification time and identity of the file.
func ETag(stat FileStat) string {
	var buf [24]byte
	binary.LittleEndian.PutUint64(buf[0:], uint64(stat.Size))
	binary.LittleEndian.PutUint64(buf[8:], uint64(stat.ModTime.UnixNano()))
	binary.LittleEndian.PutUint64(buf[16:], stat.Identity)
	return fmt.Sprintf(`W/"%x-%x"`, stat.Size, xxhash.Sum64(buf[:]))
}

// CacheControl formats a public Cache-Control value. maxAge is floored to
// whole seconds and clamped to MaxMaxAge.
func CacheControl(maxAge time.Duration, immutable bool) string {
	maxAge = min(max(maxAge, 0), MaxMaxAge)
	v := "public, max-age=" + strconv.FormatInt(int64(maxAge/time.Second), 10)
	if immutable {
		v += ", immutable"
	}
	return v
}

// validators are the response validators a request is checked against.
// Disabled validators are empty and never match. mtime is the entity's
// modification time to the second, set even when Last-Modified is off.
type validators struct {
	etag         string
	lastModified time.Time
	mtime        time.Time
}

// setEntityHeaders writes the representation headers for res and returns
// the validators it advertised.
func (s *Sender) setEntityHeaders(h http.Header, res Resolution) validators {
	v := validators{mtime: res.Stat.ModTime.UTC().Truncate(time.Second)}

	if s.opts.AcceptRanges {
		h.Set("Accept-Ranges", "bytes")
	}
	if s.opts.CacheControl {
		h.Set("Cache-Control", CacheControl(s.opts.MaxAge, s.opts.Immutable))
	}
	if s.opts.LastModified {
		v.lastModified = v.mtime
		h.Set("Last-Modified", v.lastModified.Format(http.TimeFormat))
	}
	if s.opts.ETag {
		v.etag = ETag(res.Stat)
		h.Set("ETag", v.etag)
	}
	if h.Get("Content-Type") == "" {
		if ct := s.contentType(res.Path); ct != "" {
			h.Set("Content-Type", ct)
		}
	}

	return v
}

func (s *Sender) contentType(name string) string {
	ct := s.opts.lookupType(filepath.Ext(name))
	if ct == "" {
		ct = DefaultContentType
	}
	if ct == "" {
		return ""
	}
	if strings.HasPrefix(ct, "text/") && !strings.Contains(strings.ToLower(ct), "charset=") {
		ct += "; charset=utf-8"
	}
	return ct
}

// evaluatePreconditions applies If-Match, If-Unmodified-Since,
// If-None-Match and If-Modified-Since in that order. It returns nil when
// the request should proceed. Without an ETag only "*" satisfies If-Match;
// If-Unmodified-Since is always checked against the entity mtime.
func evaluatePreconditions(req http.Header, v validators) Decision {
	if match := req.Get("If-Match"); match != "" {
		if !containsTag(match, v.etag, true) {
			return PreconditionFailed{}
		}
	}

	if since, ok := parseHTTPDate(req.Get("If-Unmodified-Since")); ok && !v.mtime.IsZero() {
		if v.mtime.After(since) {
			return PreconditionFailed{}
		}
	}

	if noCache(req.Get("Cache-Control")) {
		return nil
	}

	if noneMatch := req.Get("If-None-Match"); noneMatch != "" {
		if containsTag(noneMatch, v.etag, true) {
			return NotModified{}
		}
		return nil
	}

	if since, ok := parseHTTPDate(req.Get("If-Modified-Since")); ok && !v.lastModified.IsZero() {
		if !v.lastModified.After(since) {
			return NotModified{}
		}
	}

	return nil
}

// rangeFresh reports whether an If-Range value still matches the
// representation. An absent If-Range always matches.
func rangeFresh(ifRange string, v validators) bool {
	ifRange = strings.TrimSpace(ifRange)
	if ifRange == "" {
		return true
	}
	if strings.Contains(ifRange, `"`) {
		return v.etag != "" && ifRange == v.etag
	}
	date, ok := parseHTTPDate(ifRange)
	return ok && !v.lastModified.IsZero() && date.Equal(v.lastModified)
}

// stripContentHeaders removes representation headers from a 304.
// Content-Location survives.
func stripContentHeaders(h http.Header) {
	for k := range h {
		if strings.HasPrefix(k, "Content-") && k != "Content-Location" {
			delete(h, k)
		}
	}
}

func parseHTTPDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC().Truncate(time.Second), true
}
