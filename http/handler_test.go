package http_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sagarc03/sendfile"
	"github.com/sagarc03/sendfile/filesystem"
	sendhttp "github.com/sagarc03/sendfile/http"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of http.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(w http.ResponseWriter, r *http.Request, path string) {
	m.Called(w, r, path)
}

func TestHandler_Get_PassesEscapedPath(t *testing.T) {
	sender := new(MockSender)
	handler := sendhttp.NewHandler(&sendhttp.HandlerConfig{}, sender)

	sender.On("Send", mock.Anything, mock.Anything, "/my%20docs/a.txt").
		Run(func(args mock.Arguments) {
			w := args.Get(0).(http.ResponseWriter)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("content"))
		})

	req := httptest.NewRequest(http.MethodGet, "/my%20docs/a.txt?v=2", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content", rec.Body.String())
	sender.AssertExpectations(t)
}

func TestHandler_Head(t *testing.T) {
	sender := new(MockSender)
	handler := sendhttp.NewHandler(&sendhttp.HandlerConfig{}, sender)

	sender.On("Send", mock.Anything, mock.MatchedBy(func(r *http.Request) bool {
		return r.Method == http.MethodHead
	}), "/a.txt").Run(func(args mock.Arguments) {
		args.Get(0).(http.ResponseWriter).WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodHead, "/a.txt", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	sender.AssertExpectations(t)
}

func TestHandler_MethodNotAllowed(t *testing.T) {
	sender := new(MockSender)
	handler := sendhttp.NewHandler(&sendhttp.HandlerConfig{}, sender)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		req := httptest.NewRequest(method, "/a.txt", nil)
		rec := httptest.NewRecorder()

		handler.Router().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, method)
		assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"))
		assert.Contains(t, rec.Body.String(), "method_not_allowed")
	}

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Health(t *testing.T) {
	sender := new(MockSender)
	handler := sendhttp.NewHandler(&sendhttp.HandlerConfig{HealthPath: "/healthz"}, sender)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_CORS(t *testing.T) {
	sender := new(MockSender)
	config := &sendhttp.HandlerConfig{
		CORS: sendhttp.CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"https://example.com"},
			AllowedMethods: []string{http.MethodGet, http.MethodHead},
		},
	}
	handler := sendhttp.NewHandler(config, sender)

	sender.On("Send", mock.Anything, mock.Anything, "/a.txt").Run(func(args mock.Arguments) {
		args.Get(0).(http.ResponseWriter).WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/a.txt", nil)
	req.Header.Set("Origin", "https://example.com")
	rec := httptest.NewRecorder()

	handler.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func newSenderRouter(t *testing.T, format sendhttp.ErrorFormat) http.Handler {
	t.Helper()
	mem := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(mem, "/www/nums.txt", []byte("123456789"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/www/pets/index.html", []byte("tobi"), 0o644))

	hook, err := sendhttp.ErrorHook(format)
	require.NoError(t, err)

	opts := sendfile.DefaultOptions()
	opts.Root = "/www"
	opts.Hooks.OnError = hook
	sender, err := sendfile.New(filesystem.NewFileStorage(mem), opts)
	require.NoError(t, err)

	return sendhttp.NewHandler(&sendhttp.HandlerConfig{}, sender).Router()
}

func TestHandler_WithSender(t *testing.T) {
	router := newSenderRouter(t, sendhttp.ErrorFormatText)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nums.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "123456789", rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/nums.txt", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusPartialContent, rec.Code)
	assert.Equal(t, "3456", rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pets", nil))
	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/pets/", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not Found", rec.Body.String())
}

func TestHandler_JSONErrors(t *testing.T) {
	router := newSenderRouter(t, sendhttp.ErrorFormatJSON)

	req := httptest.NewRequest(http.MethodGet, "/nums.txt", nil)
	req.Header.Set("Range", "bytes=20-")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "bytes */9", rec.Header().Get("Content-Range"))
	assert.Empty(t, rec.Header().Get("ETag"))

	var body sendhttp.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "range_not_satisfiable", body.Error)
}

func TestHandler_HTMLErrors(t *testing.T) {
	router := newSenderRouter(t, sendhttp.ErrorFormatHTML)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<h1>404 Not Found</h1>")
}
