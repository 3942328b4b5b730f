package main

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sagarc03/sendfile"
	"github.com/sagarc03/sendfile/config"
)

var statCmd = &cobra.Command{
	Use:   "stat <url-path>",
	Short: "Show how a request path would be answered",
	Long: `Resolve a request path against the configured root and print the
chosen file, the response headers and the decision, without starting a
server. Conditional and Range headers can be supplied with --header.`,
	Args: cobra.ExactArgs(1),
	RunE: runStat,
}

func init() {
	statCmd.Flags().StringArrayP("header", "H", nil, `request header, e.g. -H "Range: bytes=0-99"`)
	statCmd.Flags().Bool("head", false, "evaluate a HEAD request")

	rootCmd.AddCommand(statCmd)
}

func runStat(cmd *cobra.Command, args []string) error {
	cfg, err := config.FromContext(cmd.Context())
	if err != nil {
		return err
	}

	sender, err := newSender(cmd.Context(), cfg, sendfile.Hooks{})
	if err != nil {
		return err
	}

	method := http.MethodGet
	if head, _ := cmd.Flags().GetBool("head"); head {
		method = http.MethodHead
	}
	req, err := http.NewRequestWithContext(cmd.Context(), method, "/", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	headers, _ := cmd.Flags().GetStringArray("header")
	for _, h := range headers {
		name, value, ok := strings.Cut(h, ":")
		if !ok {
			return fmt.Errorf("invalid header %q: expected Name: value", h)
		}
		req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	respHeader := make(http.Header)
	res, decision := sender.Decide(req, respHeader, args[0])

	return printDecision(cmd.OutOrStdout(), res, decision, respHeader)
}

func printDecision(w io.Writer, res sendfile.Resolution, d sendfile.Decision, h http.Header) error {
	if res.Path != "" {
		fmt.Fprintf(w, "file:      %s\n", res.Path)
		fmt.Fprintf(w, "size:      %s (%d bytes)\n", humanize.IBytes(uint64(res.Stat.Size)), res.Stat.Size)
		fmt.Fprintf(w, "modified:  %s (%s)\n", res.Stat.ModTime.UTC().Format(http.TimeFormat), humanize.Time(res.Stat.ModTime))
	}

	switch d := d.(type) {
	case sendfile.Stream:
		status := http.StatusOK
		if d.Partial {
			status = http.StatusPartialContent
		}
		fmt.Fprintf(w, "decision:  %d %s\n", status, http.StatusText(status))
		for _, win := range d.Windows {
			fmt.Fprintf(w, "window:    %d-%d (%s)\n", win.Start, win.End, humanize.IBytes(uint64(win.Len())))
		}
		if d.Multipart {
			fmt.Fprintln(w, "multipart: yes")
		}
	case sendfile.Redirect:
		fmt.Fprintf(w, "decision:  301 redirect to %s\n", d.Location)
	case sendfile.NotModified:
		fmt.Fprintln(w, "decision:  304 Not Modified")
	case sendfile.PreconditionFailed:
		fmt.Fprintln(w, "decision:  412 Precondition Failed")
	case sendfile.RangeNotSatisfiable:
		fmt.Fprintf(w, "decision:  416 Range Not Satisfiable (servable size %d)\n", d.Size)
	case sendfile.Failure:
		fmt.Fprintf(w, "decision:  %v\n", d.Err)
	default:
		fmt.Fprintf(w, "decision:  %T\n", d)
	}

	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		for _, v := range h[k] {
			fmt.Fprintf(w, "%s: %s\n", k, v)
		}
	}
	return nil
}
