package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"media-clipper/internal/metrics"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := log.Writer()
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(orig) })
	return &buf
}

func TestStatusWriter(t *testing.T) {
	w := httptest.NewRecorder()
	sw := newStatusWriter(w)

	if sw.statusCode != http.StatusOK {
		t.Errorf("Expected default status code 200, got %d", sw.statusCode)
	}

	sw.WriteHeader(http.StatusNotFound)
	sw.WriteHeader(http.StatusInternalServerError)
	if sw.statusCode != http.StatusNotFound {
		t.Errorf("status = %d, the first WriteHeader should win", sw.statusCode)
	}

	n, err := sw.Write([]byte("test data"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if n != 9 || sw.bytesWritten != 9 {
		t.Errorf("wrote %d, bytesWritten %d, want 9", n, sw.bytesWritten)
	}
}

func TestSanitizeLogField(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"a\nb", "a b"},
		{"a\r\nb", "a  b"},
		{"nul\x00byte", "nulbyte"},
		{"\x1b[31mred", "[31mred"},
		{"tab\there", "tab\there"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeLogField(tt.in); got != tt.want {
				t.Errorf("sanitizeLogField(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestShouldSkip(t *testing.T) {
	config := DefaultLoggingConfig()
	config.SkipPaths = []string{"/internal/"}
	config.LogHealthChecks = false

	tests := []struct {
		path string
		want bool
	}{
		{"/api/clips", false},
		{"/healthz", true},
		{"/internal/debug", true},
		{"/app.JS", true},
		{"/output/clip.mp4", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := shouldSkip(tt.path, config); got != tt.want {
				t.Errorf("shouldSkip(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.2.3.4:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.9"}, "1.2.3.4:80", "10.0.0.9"},
		{"remote addr", nil, "1.2.3.4:5555", "1.2.3.4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := getClientIP(r); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoggerMiddleware(t *testing.T) {
	buf := captureLog(t)

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("queued"))
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/clips?x=1", nil)
	r.Header.Set("User-Agent", "curl test")
	handler.ServeHTTP(httptest.NewRecorder(), r)

	out := buf.String()
	for _, want := range []string{"POST /api/clips x=1 202 6", `"curl test"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q does not contain %q", out, want)
		}
	}
}

func TestLoggerMiddlewareSkipsStatic(t *testing.T) {
	buf := captureLog(t)

	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/style.css", nil))

	if buf.Len() != 0 {
		t.Errorf("static file request should not be logged, got %q", buf.String())
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/", "/"},
		{"/api/clips", "/api/clips"},
		{"/api/clips/my clip.mp4", "/api/clips/{path}"},
		{"/output/a/b/c", "/output/a/{path}"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := normalizePath(tt.in); got != tt.want {
				t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	r := mux.NewRouter()
	r.Use(Metrics(DefaultMetricsConfig()))
	r.HandleFunc("/api/clips/{name}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}).Methods(http.MethodDelete)

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodDelete, "/api/clips/{name}", "204")
	before := testutil.ToFloat64(counter)

	for _, name := range []string{"a.mp4", "b.mp4"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/api/clips/"+name, nil))
	}

	if got := testutil.ToFloat64(counter); got != before+2 {
		t.Errorf("counter = %v, want %v", got, before+2)
	}
}

func TestMetricsMiddlewareSkipPaths(t *testing.T) {
	handler := Metrics(DefaultMetricsConfig())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/healthz", "200")
	before := testutil.ToFloat64(counter)

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if got := testutil.ToFloat64(counter); got != before {
		t.Error("health checks should not be recorded")
	}
}

func jsonHandler(body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, body)
	})
}

func TestCompressionMiddleware(t *testing.T) {
	large := "[" + strings.Repeat(`"/media/films/movie.mkv",`, 100) + `""]`

	tests := []struct {
		name         string
		path         string
		body         string
		acceptGzip   bool
		wantEncoding string
	}{
		{"large json is compressed", "/api/search", large, true, "gzip"},
		{"small json is not", "/api/search", `[]`, true, ""},
		{"client without gzip", "/api/search", large, false, ""},
		{"clip downloads are skipped", "/output/clip.mp4", large, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.acceptGzip {
				r.Header.Set("Accept-Encoding", "gzip, deflate")
			}
			w := httptest.NewRecorder()
			Compression(DefaultCompressionConfig())(jsonHandler(tt.body)).ServeHTTP(w, r)

			if got := w.Header().Get("Content-Encoding"); got != tt.wantEncoding {
				t.Fatalf("Content-Encoding = %q, want %q", got, tt.wantEncoding)
			}

			body := w.Body.Bytes()
			if tt.wantEncoding == "gzip" {
				zr, err := gzip.NewReader(bytes.NewReader(body))
				if err != nil {
					t.Fatalf("gzip.NewReader() error = %v", err)
				}
				if body, err = io.ReadAll(zr); err != nil {
					t.Fatalf("reading gzip body: %v", err)
				}
			}
			if string(body) != tt.body {
				t.Errorf("body mismatch: got %d bytes, want %d", len(body), len(tt.body))
			}
		})
	}
}

func TestCompressionKeepsStatus(t *testing.T) {
	handler := Compression(DefaultCompressionConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"full"}`))
	}))

	r := httptest.NewRequest(http.MethodPost, "/api/clips", nil)
	r.Header.Set("Accept-Encoding", "gzip")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	if w.Body.String() != `{"error":"full"}` {
		t.Errorf("body = %q", w.Body.String())
	}
}

func BenchmarkLoggingMiddleware(b *testing.B) {
	log.SetOutput(io.Discard)
	handler := Logger(DefaultLoggingConfig())(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	r := httptest.NewRequest(http.MethodGet, "/api/clips", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), r)
	}
}
