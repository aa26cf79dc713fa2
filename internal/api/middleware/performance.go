package middleware

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"
	"sync"
)

// minGzipBytes is the smallest body worth compressing
const minGzipBytes = 1024

var gzipWriterPool = sync.Pool{
	New: func() interface{} {
		gz, _ := gzip.NewWriterLevel(io.Discard, 5)
		return gz
	},
}

// bufferedWriter holds the whole response so it can be hashed or compressed
type bufferedWriter struct {
	http.ResponseWriter
	buffer     bytes.Buffer
	statusCode int
}

func (w *bufferedWriter) Write(b []byte) (int, error) {
	return w.buffer.Write(b)
}

func (w *bufferedWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
}

func (w *bufferedWriter) status() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

// Compression gzips response bodies larger than minGzipBytes for clients that accept it.
// Dashboards for long-followed patients run to hundreds of kilobytes of JSON.
func Compression(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}

		rec := &bufferedWriter{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		w.Header().Add("Vary", "Accept-Encoding")
		if rec.buffer.Len() < minGzipBytes {
			w.WriteHeader(rec.status())
			w.Write(rec.buffer.Bytes())
			return
		}

		gz := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(gz)
		gz.Reset(w)

		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Del("Content-Length")
		w.WriteHeader(rec.status())
		gz.Write(rec.buffer.Bytes())
		gz.Close()
	})
}

// ETag answers conditional GETs with 304 when the derived view has not changed
func ETag(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		rec := &bufferedWriter{ResponseWriter: w}
		next.ServeHTTP(rec, r)

		if rec.status() != http.StatusOK {
			w.WriteHeader(rec.status())
			w.Write(rec.buffer.Bytes())
			return
		}

		hash := sha256.Sum256(rec.buffer.Bytes())
		etag := `"` + hex.EncodeToString(hash[:16]) + `"`
		w.Header().Set("ETag", etag)

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write(rec.buffer.Bytes())
	})
}

// CacheControl marks patient data as private to the requesting client
func CacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		switch {
		case r.Method != http.MethodGet:
			w.Header().Set("Cache-Control", "no-store")
		case strings.HasPrefix(path, "/api/patients/") &&
			(strings.HasSuffix(path, "/dashboard") || strings.HasSuffix(path, "/series") ||
				strings.HasSuffix(path, "/procedures") || strings.Contains(path, "/intervals/")):
			w.Header().Set("Cache-Control", "private, max-age=60, must-revalidate")
		default:
			w.Header().Set("Cache-Control", "private, no-cache")
		}

		next.ServeHTTP(w, r)
	})
}

// ResponseOptimization combines cache headers, ETags and compression
func ResponseOptimization(next http.Handler) http.Handler {
	return CacheControl(ETag(Compression(next)))
}
