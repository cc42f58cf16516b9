package gin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/codecomet-io/codecomet-go/capture"
	"github.com/codecomet-io/codecomet-go/common/logger"
	"github.com/codecomet-io/codecomet-go/common/test"
	"github.com/codecomet-io/codecomet-go/forward"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// The forwarder is the production sink.
var _ Sink = (*forward.Forwarder)(nil)

// recordingSink collects forwarded records and the context state observed
// at forward time.
type recordingSink struct {
	mu      sync.Mutex
	recs    []*capture.Record
	ctxErrs []error
}

func (s *recordingSink) Forward(ctx context.Context, rec *capture.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
}

func (s *recordingSink) records() []*capture.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*capture.Record(nil), s.recs...)
}

func (s *recordingSink) contextErrs() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.ctxErrs...)
}

// withTestLogger threads a per-test logger through the request context.
func withTestLogger(t *testing.T) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := logger.ContextWithLogger(c.Request.Context(), test.NewLogger(t))
		c.Request = c.Request.WithContext(ctx)
	}
}

func TestCaptureBypassesStaticAssets(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}))
	r.GET("/*any", func(c *gin.Context) {
		c.String(http.StatusOK, "served")
	})

	for _, path := range []string{"/static/app.js", "/LOGO.PNG", "/favicon.ico"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

		// Request is served normally, just not recorded
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "served", rec.Body.String())
	}
	require.Empty(t, sink.records())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/orders", nil))
	require.Len(t, sink.records(), 1)
}

func TestCaptureResponseTransparency(t *testing.T) {
	handler := func(c *gin.Context) {
		c.Header("X-Custom", "yes")
		c.String(http.StatusTeapot, "teapot party")
	}

	plain := gin.New()
	plain.GET("/tea", handler)

	sink := &recordingSink{}
	captured := gin.New()
	captured.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}))
	captured.GET("/tea", handler)

	plainRec := httptest.NewRecorder()
	plain.ServeHTTP(plainRec, httptest.NewRequest(http.MethodGet, "/tea", nil))

	capturedRec := httptest.NewRecorder()
	captured.ServeHTTP(capturedRec, httptest.NewRequest(http.MethodGet, "/tea", nil))

	require.Equal(t, plainRec.Code, capturedRec.Code)
	require.Equal(t, plainRec.Body.String(), capturedRec.Body.String())
	require.Equal(t, plainRec.Header(), capturedRec.Header())
	require.Len(t, sink.records(), 1)
}

func TestCaptureRecordFields(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "proj-9", Sink: sink}))
	r.POST("/api/orders", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 7})
	})

	req := httptest.NewRequest(http.MethodPost, "/api/orders?a=1&a=2", strings.NewReader(`{"x":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	records := sink.records()
	require.Len(t, records, 1)
	got := records[0]

	require.Equal(t, "proj-9", got.ProjectID)
	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "/api/orders", got.Path)
	require.Equal(t, "a=1&a=2", got.QueryString)
	require.Contains(t, got.RequestHeaders, "Content-Type: application/json")
	require.Equal(t, `{"x":1}`, got.RawRequest)
	require.JSONEq(t, `{"id":7}`, got.RawResponse)
	require.Equal(t, http.StatusCreated, got.StatusCode)
	require.NotEmpty(t, got.ExecutablePath)
	require.Empty(t, got.ExceptionMessage)
	require.Empty(t, got.Traceback)
	require.False(t, got.RequestTime.IsZero())
	require.NotNil(t, got.ResponseTime)
	require.False(t, got.ResponseTime.Before(got.RequestTime.Time))
}

func TestCaptureRequestBodyStaysReadable(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}))
	r.POST("/echo", func(c *gin.Context) {
		data, err := c.GetRawData()
		require.NoError(t, err)
		c.String(http.StatusOK, string(data))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ping")))

	require.Equal(t, "ping", rec.Body.String())
	require.Equal(t, "ping", sink.records()[0].RawRequest)
}

func TestCaptureForwardsBeforePanicResumes(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}))
	r.GET("/boom", func(_ *gin.Context) {
		panic("kaboom")
	})

	require.PanicsWithValue(t, "kaboom", func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	})

	records := sink.records()
	require.Len(t, records, 1)
	got := records[0]

	require.Equal(t, http.StatusInternalServerError, got.StatusCode)
	require.Equal(t, "kaboom", got.ExceptionMessage)
	require.Contains(t, got.Traceback, "goroutine")
	require.Empty(t, got.RawResponse)
	require.Nil(t, got.ResponseTime)
}

func TestCapturePanicWithRecoveryStack(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(
		withTestLogger(t),
		PanicRecoveryMiddleware,
		CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}),
	)
	r.GET("/boom", func(_ *gin.Context) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	// Recovery converts the re-propagated panic into a 500 for the client
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")

	records := sink.records()
	require.Len(t, records, 1)
	require.Equal(t, "kaboom", records[0].ExceptionMessage)
}

func TestCapturePanicKeepsServerErrorStatus(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}))
	r.GET("/flaky", func(c *gin.Context) {
		c.Status(http.StatusServiceUnavailable)
		panic("after status")
	})

	require.Panics(t, func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/flaky", nil))
	})

	records := sink.records()
	require.Len(t, records, 1)
	require.Equal(t, http.StatusServiceUnavailable, records[0].StatusCode)
}

func TestCapturePanicCoercesSuccessStatus(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}))
	r.GET("/flaky", func(c *gin.Context) {
		c.Status(http.StatusOK)
		panic("after ok")
	})

	require.Panics(t, func() {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/flaky", nil))
	})

	records := sink.records()
	require.Len(t, records, 1)
	require.Equal(t, http.StatusInternalServerError, records[0].StatusCode)
}

func TestCaptureRedactsHeaders(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink, RedactHeaders: true}))
	r.GET("/private", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	req.Header.Set("Accept", "application/json")
	r.ServeHTTP(httptest.NewRecorder(), req)

	headers := sink.records()[0].RequestHeaders
	require.Contains(t, headers, "Authorization: [REDACTED]")
	require.NotContains(t, headers, "tok-123")
	require.Contains(t, headers, "Accept: application/json")
}

func TestCaptureNilSinkDisablesCapture(t *testing.T) {
	r := gin.New()
	r.Use(CaptureMiddleware(CaptureConfig{ProjectID: "p"}))
	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, "pong", rec.Body.String())
}

func TestCaptureForwardContextOutlivesTimeout(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(
		withTestLogger(t),
		CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}),
		TimeoutMiddleware(time.Minute),
	)
	r.GET("/ok", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))

	// The timeout context is already canceled when the record ships; the
	// snapshot taken before the chain must not be.
	errs := sink.contextErrs()
	require.Len(t, errs, 1)
	require.NoError(t, errs[0])
}

func TestCaptureErrorHandlingResponseRecorded(t *testing.T) {
	sink := &recordingSink{}
	r := gin.New()
	r.Use(
		withTestLogger(t),
		CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: sink}),
		ErrorHandlingMiddleware,
	)
	r.GET("/fail", func(c *gin.Context) {
		_ = c.Error(errors.New("order lookup failed"))
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/fail", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")

	records := sink.records()
	require.Len(t, records, 1)
	require.Equal(t, http.StatusInternalServerError, records[0].StatusCode)
	require.Contains(t, records[0].RawResponse, "internal server error")
}

func TestCrashDeliveredToCollector(t *testing.T) {
	var deliveries int32
	var envelope forward.Envelope
	var mu sync.Mutex
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&deliveries, 1)
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&envelope)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer collector.Close()

	f := forward.New("key",
		forward.WithEndpointURL(collector.URL),
		forward.WithLogger(test.NewLogger(t)),
	)

	r := gin.New()
	r.Use(
		withTestLogger(t),
		PanicRecoveryMiddleware,
		CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: f}),
	)
	r.GET("/crash", func(_ *gin.Context) {
		panic("database gone")
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/crash", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, int32(1), atomic.LoadInt32(&deliveries))

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, envelope.Log)
	require.Equal(t, http.StatusInternalServerError, envelope.Log.StatusCode)
	require.NotEmpty(t, envelope.Log.ExceptionMessage)
	require.Equal(t, http.MethodGet, envelope.Log.Method)
	require.Equal(t, "/crash", envelope.Log.Path)
	require.Empty(t, envelope.Log.RawRequest)
}

func TestCaptureWithForwarderSampling(t *testing.T) {
	var deliveries int32
	var lastEnvelope forward.Envelope
	var mu sync.Mutex
	collector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&deliveries, 1)
		mu.Lock()
		_ = json.NewDecoder(r.Body).Decode(&lastEnvelope)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	defer collector.Close()

	f := forward.New("key",
		forward.WithEndpointURL(collector.URL),
		forward.WithLogger(test.NewLogger(t)),
	)

	r := gin.New()
	r.Use(withTestLogger(t), CaptureMiddleware(CaptureConfig{ProjectID: "p", Sink: f}))
	r.GET("/ok", func(c *gin.Context) {
		c.String(http.StatusOK, "fine")
	})
	r.GET("/down", func(c *gin.Context) {
		c.String(http.StatusInternalServerError, "broken")
	})
	r.POST("/api/orders", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 1})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Zero(t, atomic.LoadInt32(&deliveries))

	orderReq := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(`{"x":1}`))
	orderRec := httptest.NewRecorder()
	r.ServeHTTP(orderRec, orderReq)
	require.Equal(t, http.StatusCreated, orderRec.Code)
	require.Zero(t, atomic.LoadInt32(&deliveries))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/down", nil))
	require.Equal(t, int32(1), atomic.LoadInt32(&deliveries))

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, lastEnvelope.Log)
	require.Equal(t, http.StatusInternalServerError, lastEnvelope.Log.StatusCode)
	require.Equal(t, "broken", lastEnvelope.Log.RawResponse)
}
