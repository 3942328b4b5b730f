// Package sendfile serves single files over HTTP with conditional GET and
// byte range support.
//
// A request flows through a fixed pipeline. Each stage may end it early
// with a terminal Decision:
//
//   - Path resolution: percent-decoding, root confinement and the dotfile
//     policy (ResolvePath).
//   - Entry location: directory redirects, index files and extension
//     fallback.
//   - Metadata and validation: ETag, Last-Modified, Cache-Control and
//     Content-Type, then If-Match, If-Unmodified-Since, If-None-Match and
//     If-Modified-Since.
//   - Range planning: Range and If-Range, producing a full, single-part or
//     multipart/byteranges stream (ParseRange, CombineRanges).
//   - Streaming: bounded reads from the FileSystem capability.
//
// # Example Usage
//
//	store := filesystem.NewOSStorage()
//	opts := sendfile.DefaultOptions()
//	opts.Root = "/srv/www"
//	opts.MaxAge = 24 * time.Hour
//
//	sender, err := sendfile.New(store, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	http.Handle("/", sender)
//
// Hooks let a caller take over directory handling and error rendering,
// rewrite the chosen file, adjust headers and wrap read streams. See the
// http package for a chi based server built on top of Sender.
package sendfile
