package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

const testToken = "mysecrettoken"

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ==================== AUTH ====================

func TestAuth(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
		wantCalled bool
	}{
		{name: "valid token", header: "Bearer " + testToken, wantStatus: http.StatusOK, wantBody: "ok", wantCalled: true},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized, wantBody: UnauthorizedMessage},
		{name: "wrong token", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantBody: UnauthorizedMessage},
		{name: "wrong scheme", header: "Basic " + testToken, wantStatus: http.StatusUnauthorized, wantBody: UnauthorizedMessage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			r := gin.New()
			r.Use(Auth(testToken, zaptest.NewLogger(t)))
			r.GET("/", func(c *gin.Context) {
				called = true
				c.String(http.StatusOK, "ok")
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := serve(r, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
			assert.Equal(t, tt.wantCalled, called)
		})
	}
}

// ==================== LOGGER ====================

func TestLogger_LogsRequestAndBufferedResponse(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.POST("/users", func(c *gin.Context) {
		c.Header("Location", "/users/3")
		c.JSON(http.StatusCreated, gin.H{"id": 3})
	})

	w := serve(r, httptest.NewRequest(http.MethodPost, "/users", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":3}`, w.Body.String())
	assert.Equal(t, "/users/3", w.Header().Get("Location"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "request", entries[0].Message)
	assert.Equal(t, "POST", entries[0].ContextMap()["method"])
	assert.Equal(t, "/users", entries[0].ContextMap()["path"])
	assert.Equal(t, "response", entries[1].Message)
	assert.Equal(t, int64(http.StatusCreated), entries[1].ContextMap()["status"])
	assert.JSONEq(t, `{"id":3}`, entries[1].ContextMap()["body"].(string))
}

func TestLogger_BodyIsHeldUntilHandlerReturns(t *testing.T) {
	var writtenDuringHandler int

	r := gin.New()
	r.Use(Logger(zaptest.NewLogger(t)))
	var recorder *httptest.ResponseRecorder
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "first ")
		c.String(http.StatusOK, "second")
		writtenDuringHandler = recorder.Body.Len()
	})

	recorder = httptest.NewRecorder()
	r.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Zero(t, writtenDuringHandler)
	assert.Equal(t, "first second", recorder.Body.String())
}

func TestLogger_NoContent(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Logger(zap.New(core)))
	r.DELETE("/users/2", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := serve(r, httptest.NewRequest(http.MethodDelete, "/users/2", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	require.Len(t, logs.All(), 2)
	assert.Equal(t, int64(http.StatusNoContent), logs.All()[1].ContextMap()["status"])
}

// ==================== RECOVERY ====================

func TestRecovery(t *testing.T) {
	tests := []struct {
		name       string
		panicValue any
		wantDetail string
	}{
		{name: "string panic", panicValue: "This is a test exception!", wantDetail: "This is a test exception!"},
		{name: "error panic", panicValue: errors.New("boom"), wantDetail: "boom"},
		{name: "other panic", panicValue: 42, wantDetail: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)

			r := gin.New()
			r.Use(Recovery(zap.New(core)))
			r.GET("/exception", func(c *gin.Context) {
				panic(tt.panicValue)
			})

			w := serve(r, httptest.NewRequest(http.MethodGet, "/exception", nil))

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, UnexpectedErrorMessage, body.Error)
			assert.Equal(t, tt.wantDetail, body.Detail)

			require.Equal(t, 1, logs.Len())
			assert.Equal(t, tt.wantDetail, logs.All()[0].ContextMap()["detail"])
		})
	}
}

func TestRecovery_ServerKeepsServing(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(zaptest.NewLogger(t)))
	r.GET("/exception", func(c *gin.Context) { panic("again") })
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "This is root") })

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusInternalServerError, serve(r, httptest.NewRequest(http.MethodGet, "/exception", nil)).Code)
	}
	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "This is root", w.Body.String())
}

func TestLoggerThenRecovery_LogsEnvelope(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := zap.New(core)

	r := gin.New()
	r.Use(Logger(log), Recovery(log))
	r.GET("/exception", func(c *gin.Context) { panic("This is a test exception!") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/exception", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	responses := logs.FilterMessage("response").All()
	require.Len(t, responses, 1)
	assert.Equal(t, int64(http.StatusInternalServerError), responses[0].ContextMap()["status"])
	assert.JSONEq(t, w.Body.String(), responses[0].ContextMap()["body"].(string))
}

func TestLoggerThenRecovery_DiscardsPartialBody(t *testing.T) {
	log := zaptest.NewLogger(t)

	r := gin.New()
	r.Use(Logger(log), Recovery(log))
	r.GET("/half", func(c *gin.Context) {
		c.String(http.StatusOK, "partial ")
		panic("failed mid-write")
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/half", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, UnexpectedErrorMessage, body.Error)
	assert.Equal(t, "failed mid-write", body.Detail)
}

// ==================== PARAMS ====================

func TestIntParam(t *testing.T) {
	var got int64
	r := gin.New()
	r.GET("/users/:id", IntParam("id"), func(c *gin.Context) {
		got = c.GetInt64("id")
		c.Status(http.StatusOK)
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/users/17", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(17), got)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/users/2147483647", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(2147483647), got)

	for _, bad := range []string{"abc", "1.5", "3000000000", "-2147483649", "9999999999999999999999"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/users/"+bad, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, bad)
		assert.Equal(t, notFoundBody, w.Body.String(), bad)
	}
}
