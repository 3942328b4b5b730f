package sendfile

import (
	"context"
	"io"
	"net/http"
	"time"
)

// FileSystem is the storage capability the sender reads from. Names are
// native filesystem paths produced by the path resolver.
//
// Implementations must be safe for concurrent use by many requests.
type FileSystem interface {
	// Stat returns metadata for name. Errors should wrap fs.ErrNotExist
	// or the originating syscall errno so they can be classified.
	Stat(ctx context.Context, name string) (FileStat, error)

	// Open returns a reader over the inclusive byte window [start, end] of
	// name. A window with end < start yields no bytes.
	//
	// The caller is responsible for closing the returned ReadCloser.
	Open(ctx context.Context, name string, start, end int64) (io.ReadCloser, error)
}

// FileStat is the metadata of a resolved entry.
type FileStat struct {
	Size       int64
	ModTime    time.Time
	ChangeTime time.Time
	// Identity is an inode-like token that distinguishes two files with the
	// same size and modification time.
	Identity uint64
	IsDir    bool
}

// Resolution is the file chosen for a request. OnFile receives a pointer
// to it and may replace Path before the file is opened.
type Resolution struct {
	Path string
	Stat FileStat
}

// ByteWindow is an inclusive byte interval. The full window of an empty
// file is {0, -1}.
type ByteWindow struct {
	Start int64
	End   int64
}

// Len returns the number of bytes in the window.
func (b ByteWindow) Len() int64 {
	if b.End < b.Start {
		return 0
	}
	return b.End - b.Start + 1
}

// Decision is the single terminal outcome of a request.
type Decision interface {
	decision()
}

// Redirect sends the client to Location with a 301.
type Redirect struct {
	Location string
}

// NotModified answers a fresh conditional request with a 304.
type NotModified struct{}

// PreconditionFailed answers a failed If-Match or If-Unmodified-Since.
type PreconditionFailed struct{}

// RangeNotSatisfiable answers a Range header with no satisfiable range.
type RangeNotSatisfiable struct {
	Size int64
}

// Failure carries any other terminal error.
type Failure struct {
	Err *Error
}

// Stream delivers Windows of a file. Windows are relative to the servable
// part of the file, which starts at Offset and is Size bytes long. Partial
// is set for 206 responses and Multipart when more than one window is sent.
type Stream struct {
	Windows   []ByteWindow
	Offset    int64
	Size      int64
	Partial   bool
	Multipart bool
}

func (Redirect) decision()            {}
func (NotModified) decision()         {}
func (PreconditionFailed) decision()  {}
func (RangeNotSatisfiable) decision() {}
func (Failure) decision()             {}
func (Stream) decision()              {}
func (delegated) decision()           {}

// delegated means a hook took over the response.
type delegated struct{}

// Hooks are optional callbacks invoked at fixed points of the pipeline.
type Hooks struct {
	// OnFile fires once a concrete file is selected, before headers are
	// computed. Changing res.Path makes the sender open the new path.
	OnFile func(res *Resolution)

	// OnDirectory replaces the default trailing-slash redirect and 403 for
	// directories. The hook owns the response.
	OnDirectory func(w http.ResponseWriter, r *http.Request, dir string)

	// OnHeaders fires right before the status line of a 200 or 206 is
	// written. It never fires for redirects, 304s or errors.
	OnHeaders func(h http.Header, path string, stat FileStat)

	// OnStream wraps every read stream the sender opens.
	OnStream func(rc io.ReadCloser) io.ReadCloser

	// OnError replaces the default plain-text error response. When
	// err.HeadersSent is true the hook can only observe the failure.
	OnError func(w http.ResponseWriter, r *http.Request, err *Error)
}
