package server

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"mercator-hq/matchgram/pkg/telemetry/logging"
	"mercator-hq/matchgram/pkg/telemetry/tracing"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

type middleware func(http.Handler) http.Handler

func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func (rw *statusRecorder) WriteHeader(code int) {
	if !rw.written {
		rw.status = code
		rw.written = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *statusRecorder) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *statusRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Hijack hands the connection to the websocket upgrader. A hijacked
// request is logged with status 101.
func (rw *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	rw.written = true
	return h.Hijack()
}

// recovery turns a handler panic into a 500 response.
func (s *Server) recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.ErrorContext(r.Context(), "Panic in handler",
					"error", err,
					"method", r.Method,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal_error", "an internal error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// requestID reuses the client's X-Request-ID or assigns a new one.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := logging.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// observe traces, logs and measures every request.
func (s *Server) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := tracing.Extract(r.Context(), r.Header)
		ctx, span := s.tracer.Start(ctx, "http "+r.Method+" "+r.URL.Path)
		if id := tracing.TraceID(ctx); id != "" {
			ctx = logging.WithTraceID(ctx, id)
		}

		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))

		elapsed := time.Since(start)
		span.SetAttributes(tracing.AttrHTTPStatus.Int(rw.status))
		span.End()

		_, route := s.mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		s.metrics.RecordHTTPRequest(route, rw.status, elapsed)

		log := s.logger.InfoContext
		switch {
		case rw.status >= 500:
			log = s.logger.ErrorContext
		case rw.status >= 400:
			log = s.logger.WarnContext
		}
		log(ctx, "Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"latency_ms", elapsed.Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}
