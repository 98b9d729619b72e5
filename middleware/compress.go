package middleware

import (
	"bufio"
	"net"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

const brotliLevel = 5

// Compress serves brotli to clients that accept it and gzip to the rest.
// Uploaded media is already compressed and passes through untouched.
func Compress() echo.MiddlewareFunc {
	gzip := echomw.GzipWithConfig(echomw.GzipConfig{Level: 6, Skipper: skipCompression})
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		gzipNext := gzip(next)
		return func(c echo.Context) error {
			if skipCompression(c) {
				return next(c)
			}
			c.Response().Header().Add(echo.HeaderVary, echo.HeaderAcceptEncoding)
			if !acceptsEncoding(c.Request().Header.Get(echo.HeaderAcceptEncoding), "br") {
				return gzipNext(c)
			}

			res := c.Response()
			bw := &brotliWriter{ResponseWriter: res.Writer, code: http.StatusOK}
			res.Writer = bw
			defer func() {
				bw.finish()
				res.Writer = bw.ResponseWriter
			}()
			return next(c)
		}
	}
}

func skipCompression(c echo.Context) bool {
	req := c.Request()
	return req.Method == http.MethodHead ||
		strings.HasPrefix(req.URL.Path, "/uploads/") ||
		req.Header.Get("Upgrade") != ""
}

func acceptsEncoding(header, enc string) bool {
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		if !strings.EqualFold(strings.TrimSpace(name), enc) {
			continue
		}
		q := strings.ReplaceAll(params, " ", "")
		return q != "q=0" && q != "q=0.0" && q != "q=0.00" && q != "q=0.000"
	}
	return false
}

// brotliWriter defers the status line until the first body byte so bodiless
// responses (redirects, 204, 304) go out without a Content-Encoding.
type brotliWriter struct {
	http.ResponseWriter
	bw          *brotli.Writer
	code        int
	wroteHeader bool
}

func (w *brotliWriter) WriteHeader(code int) {
	w.code = code
}

func (w *brotliWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		h := w.Header()
		if h.Get(echo.HeaderContentType) == "" {
			h.Set(echo.HeaderContentType, http.DetectContentType(b))
		}
		h.Del(echo.HeaderContentLength)
		h.Set(echo.HeaderContentEncoding, "br")
		w.ResponseWriter.WriteHeader(w.code)
		w.wroteHeader = true
		w.bw = brotli.NewWriterLevel(w.ResponseWriter, brotliLevel)
	}
	return w.bw.Write(b)
}

func (w *brotliWriter) Flush() {
	if w.bw != nil {
		w.bw.Flush()
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *brotliWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	return http.NewResponseController(w.ResponseWriter).Hijack()
}

func (w *brotliWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *brotliWriter) finish() {
	if w.bw != nil {
		w.bw.Close()
		return
	}
	if !w.wroteHeader && w.code != http.StatusOK {
		w.ResponseWriter.WriteHeader(w.code)
	}
}
