package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"event-wallboard/errors"
	"event-wallboard/services"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	bodyKey
	bodyErrorKey
)

// RequestIDHeader carries the request ID in both directions
const RequestIDHeader = "X-Request-ID"

const maxRequestIDLength = 128

// RequestIDFromContext returns the ID assigned by requestIDMiddleware
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// BodyFromContext returns the parsed JSON body, if the request carried a
// well-formed one.
func BodyFromContext(ctx context.Context) (json.RawMessage, bool) {
	body, ok := ctx.Value(bodyKey).(json.RawMessage)
	return body, ok
}

// BodyErrorFromContext returns the validation error for a JSON body that
// could not be parsed. Requests without a JSON body carry none.
func BodyErrorFromContext(ctx context.Context) (*errors.AppError, bool) {
	err, ok := ctx.Value(bodyErrorKey).(*errors.AppError)
	return err, ok
}

// corsMiddleware applies the cross-origin policy. Every OPTIONS request is
// answered here as a preflight and never reaches the router.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	cors := s.config.CORS
	allowAll := false
	allowed := make(map[string]bool, len(cors.AllowedOrigins))
	for _, origin := range cors.AllowedOrigins {
		if origin == "*" {
			allowAll = true
		}
		allowed[origin] = true
	}
	methods := strings.Join(cors.AllowedMethods, ",")
	headers := strings.Join(cors.AllowedHeaders, ",")
	maxAge := ""
	if cors.MaxAge > 0 {
		maxAge = strconv.Itoa(int(cors.MaxAge / time.Second))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()

		if allowAll {
			h.Set("Access-Control-Allow-Origin", "*")
		} else {
			h.Add("Vary", "Origin")
			if origin := r.Header.Get("Origin"); allowed[origin] {
				h.Set("Access-Control-Allow-Origin", origin)
			}
		}

		if r.Method != http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		h.Set("Access-Control-Allow-Methods", methods)
		if headers != "" {
			h.Set("Access-Control-Allow-Headers", headers)
		} else if requested := r.Header.Get("Access-Control-Request-Headers"); requested != "" {
			h.Add("Vary", "Access-Control-Request-Headers")
			h.Set("Access-Control-Allow-Headers", requested)
		}
		if maxAge != "" {
			h.Set("Access-Control-Max-Age", maxAge)
		}
		h.Set("Content-Length", "0")
		w.WriteHeader(http.StatusNoContent)
	})
}

// requestIDMiddleware propagates a caller supplied X-Request-ID or assigns a
// new one
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// loggingMiddleware logs HTTP requests, at warn level when slower than the
// configured threshold
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)
		fields := []services.LogField{
			services.String("method", r.Method),
			services.String("path", r.URL.Path),
			services.Int("status_code", wrapper.statusCode),
			services.Int64("bytes", wrapper.bytes),
			services.Duration("duration", duration),
			services.String("request_id", RequestIDFromContext(r.Context())),
			services.String("remote_addr", r.RemoteAddr),
			services.String("user_agent", r.UserAgent()),
		}

		if threshold := s.config.Performance.SlowRequestThreshold; threshold > 0 && duration > threshold {
			s.services.Logger.Warn("Slow HTTP request", append(fields, services.Duration("threshold", threshold))...)
			return
		}
		s.services.Logger.Info("HTTP request", fields...)
	})
}

// recoveryMiddleware turns a handler panic into a 500 response
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			cause := fmt.Errorf("panic: %v", rec)
			if wrapper.wroteHeader {
				s.services.Logger.Error("Panic after response started", cause,
					services.String("path", r.URL.Path),
					services.String("request_id", RequestIDFromContext(r.Context())))
				return
			}
			s.fallbackHandler.Recovered(wrapper, r, cause)
		}()

		next.ServeHTTP(wrapper, r)
	})
}

// metricsMiddleware records request counts and durations labelled with the
// route name, so path parameters do not create new series
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		route := "unmatched"
		if current := mux.CurrentRoute(r); current != nil {
			if name := current.GetName(); name != "" {
				route = name
			} else if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}

		s.services.MetricsService.RecordDuration("http_request_duration_seconds", time.Since(start), map[string]string{
			"method": r.Method,
			"route":  route,
		})
		s.services.MetricsService.IncrementCounter("http_requests_total", map[string]string{
			"method": r.Method,
			"route":  route,
			"status": strconv.Itoa(wrapper.statusCode),
		})
	})
}

// jsonBodyMiddleware parses JSON request bodies up to the configured limit
// and stores the result in the request context. Malformed, oversized and
// unreadable bodies are logged, recorded with BodyErrorFromContext, and the
// request continues without a parsed body. Handlers can always read the
// complete raw body again.
func (s *Server) jsonBodyMiddleware(next http.Handler) http.Handler {
	limit := s.config.Request.MaxBodyBytes

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body == nil || r.Body == http.NoBody || !isJSONContent(r.Header.Get("Content-Type")) {
			next.ServeHTTP(w, r)
			return
		}

		original := r.Body
		data, err := io.ReadAll(io.LimitReader(original, limit+1))
		oversized := int64(len(data)) > limit
		if oversized {
			r.Body = readCloser{Reader: io.MultiReader(bytes.NewReader(data), original), Closer: original}
		} else {
			original.Close()
			r.Body = io.NopCloser(bytes.NewReader(data))
		}

		ctx := r.Context()
		var bodyErr *errors.AppError
		switch {
		case err != nil:
			bodyErr = errors.NewValidationError(errors.ErrCodeInvalidInput, "Failed to read request body", err)
		case oversized:
			bodyErr = errors.NewValidationError(errors.ErrCodeBodyTooLarge, "Request body exceeds limit", nil).
				WithDetails(fmt.Sprintf("limit is %d bytes", limit))
		case len(bytes.TrimSpace(data)) == 0:
			// nothing to parse
		case !isStrictJSON(data):
			bodyErr = errors.NewValidationError(errors.ErrCodeInvalidFormat, "Request body is not a JSON object or array", nil)
		default:
			ctx = context.WithValue(ctx, bodyKey, json.RawMessage(data))
		}

		if bodyErr != nil {
			s.services.Logger.Debug("Request body not parsed",
				services.String("path", r.URL.Path),
				services.String("request_id", RequestIDFromContext(ctx)),
				services.String("code", bodyErr.Code),
				services.String("details", bodyErr.Details),
				services.String("error", bodyErr.Error()),
			)
			ctx = context.WithValue(ctx, bodyErrorKey, bodyErr)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type readCloser struct {
	io.Reader
	io.Closer
}

// isJSONContent reports whether contentType names JSON, including +json types
func isJSONContent(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// isStrictJSON accepts only a well-formed object or array
func isStrictJSON(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	return json.Valid(trimmed)
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int64
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.statusCode = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += int64(n)
	return n, err
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
