package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"
	"sync"
)

// CompressionConfig holds configuration for the compression middleware
type CompressionConfig struct {
	// MinSize is the smallest body, in bytes, worth compressing
	MinSize int
	// Types lists the media types that are compressed
	Types []string
	// SkipPaths are path prefixes that are never compressed (clip downloads)
	SkipPaths []string
}

// DefaultCompressionConfig compresses API and UI text, never clip files.
func DefaultCompressionConfig() CompressionConfig {
	return CompressionConfig{
		MinSize: 1024,
		Types: []string{
			"application/json",
			"application/javascript",
			"text/html",
			"text/css",
			"text/plain",
			"text/javascript",
			"image/svg+xml",
		},
		SkipPaths: []string{"/output/", "/api/thumbnails/"},
	}
}

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.DefaultCompression)
		return w
	},
}

// gzipWriter buffers the first MinSize bytes of a response, then decides
// whether to compress based on size and Content-Type.
type gzipWriter struct {
	http.ResponseWriter
	config  CompressionConfig
	gz      *gzip.Writer
	buf     []byte
	status  int
	decided bool
}

func (g *gzipWriter) WriteHeader(code int) {
	if !g.decided {
		g.status = code
	}
}

func (g *gzipWriter) Write(p []byte) (int, error) {
	if g.decided {
		if g.gz != nil {
			return g.gz.Write(p)
		}
		return g.ResponseWriter.Write(p)
	}

	g.buf = append(g.buf, p...)
	if len(g.buf) >= g.config.MinSize {
		if err := g.decide(); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

func (g *gzipWriter) compressible() bool {
	mediaType, _, _ := strings.Cut(g.Header().Get("Content-Type"), ";")
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	for _, t := range g.config.Types {
		if mediaType == t {
			return true
		}
	}
	return false
}

func (g *gzipWriter) decide() error {
	g.decided = true
	buf := g.buf
	g.buf = nil

	if len(buf) >= g.config.MinSize && g.compressible() && g.Header().Get("Content-Encoding") == "" {
		h := g.Header()
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")

		g.gz = gzipWriterPool.Get().(*gzip.Writer)
		g.gz.Reset(g.ResponseWriter)
		g.ResponseWriter.WriteHeader(g.status)
		_, err := g.gz.Write(buf)
		return err
	}

	g.ResponseWriter.WriteHeader(g.status)
	_, err := g.ResponseWriter.Write(buf)
	return err
}

func (g *gzipWriter) close() {
	if !g.decided {
		_ = g.decide()
	}
	if g.gz != nil {
		_ = g.gz.Close()
		gzipWriterPool.Put(g.gz)
		g.gz = nil
	}
}

func (g *gzipWriter) Flush() {
	if !g.decided {
		_ = g.decide()
	}
	if g.gz != nil {
		_ = g.gz.Flush()
	}
	if f, ok := g.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Compression returns a middleware that gzips text responses for clients
// that accept it.
func Compression(config CompressionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") || r.Header.Get("Range") != "" {
				next.ServeHTTP(w, r)
				return
			}
			for _, prefix := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, prefix) {
					next.ServeHTTP(w, r)
					return
				}
			}

			gw := &gzipWriter{
				ResponseWriter: w,
				config:         config,
				status:         http.StatusOK,
				buf:            make([]byte, 0, config.MinSize),
			}
			defer gw.close()

			next.ServeHTTP(gw, r)
		})
	}
}
