package http

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const errorPageHTML = `<html>
<head><title>%[1]d %[2]s</title></head>
<body>
<center><h1>%[1]d %[2]s</h1></center>
<hr><center>sendfile</center>
</body>
</html>`

func writeErrorPage(w http.ResponseWriter, status int) {
	body := fmt.Sprintf(errorPageHTML, status, http.StatusText(status))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Content-Security-Policy", "default-src 'none'")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}
