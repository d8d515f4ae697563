package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"jeffjackson/config"
	"jeffjackson/handlers"
	"jeffjackson/middleware"
	"jeffjackson/models"
	"jeffjackson/services/backend"
	"jeffjackson/services/booking"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const createdJSON = `{"uniqueId":"BK-20261017-001","clientName":"Ana Ruiz","email":"ana@example.com","eventType":"Birthday","eventDate":"10-17-2026","eventTime":"10:00 AM","amount":350,"status":"PENDING","createdAt":"2026-10-14T14:00:00Z"}`

type fakeBackendServer struct {
	*httptest.Server
	creates int32
	lastReq backend.CreateBookingRequest
}

func newFakeBackend(t *testing.T) *fakeBackendServer {
	fb := &fakeBackendServer{}
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
	mux.HandleFunc("/api/public/blockSchedule/check-availability", ok)
	mux.HandleFunc("/bookings/check-availability", ok)
	mux.HandleFunc("/bookings", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&fb.creates, 1)
		_ = json.NewDecoder(r.Body).Decode(&fb.lastReq)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(createdJSON))
	})
	fb.Server = httptest.NewServer(mux)
	t.Cleanup(fb.Close)
	return fb
}

func newTestEngine(t *testing.T, backendURL string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	client := backend.NewClient(backend.Config{
		BaseURL:         backendURL,
		BookingEndpoint: backendURL + "/bookings",
		GatewayBaseURL:  backendURL + "/gateway",
		Timeout:         5 * time.Second,
	}, zap.NewNop())
	flow := booking.NewPaymentFlow(client, nil, nil, nil, "usd", zap.NewNop())
	store := booking.NewRedisSessionStore(rdb, 30*time.Minute, time.Minute)
	svc := booking.NewBookingSessionService(store, flow, loc, 10*time.Second, zap.NewNop())
	svc.Now = func() time.Time { return time.Date(2026, time.October, 14, 10, 0, 0, 0, loc) }

	hb := handlers.NewHandlerBundle(
		handlers.NewBookingHandler(svc, 30*time.Minute, false, zap.NewNop()),
		handlers.NewPaymentHandler(flow, zap.NewNop()),
		handlers.NewConfirmationHandler(svc, zap.NewNop()),
		handlers.NewStatusHandler(nil),
	)
	r := gin.New()
	r.Use(middleware.RequestLogger(zap.NewNop()))
	RegisterRoutes(r, hb)
	return r
}

func call(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingOverHTTP(t *testing.T) {
	fb := newFakeBackend(t)
	r := newTestEngine(t, fb.URL)

	w := call(r, http.MethodPost, "/api/booking/session", "", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var started models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &started))
	token := started.Token
	require.NotEmpty(t, token)

	w = call(r, http.MethodPost, "/api/booking/session/date", token, `{"date":"2026-10-17"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/booking/session/time", token, `{"time":"10:00 AM"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = call(r, http.MethodPost, "/api/booking/session/details", token,
		`{"client":{"name":"Ana Ruiz","email":"ana@example.com","street":"1 Main St","city":"Springfield"},"eventType":"Birthday"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var checkout models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &checkout))
	assert.Equal(t, models.StepCheckout, checkout.Step)
	assert.Equal(t, 350, checkout.Draft.Price)

	w = call(r, http.MethodPost, "/api/booking/session/pay", token, `{"transactionId":"SHORT"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, atomic.LoadInt32(&fb.creates))

	w = call(r, http.MethodPost, "/api/booking/session/pay", token, `{"transactionId":"8AB12345CD6789012"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var done models.BookingResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &done))
	assert.Equal(t, models.StepConfirmed, done.Step)
	assert.Equal(t, booking.ConfirmationRoute, done.Redirect)

	assert.Equal(t, int32(1), atomic.LoadInt32(&fb.creates))
	assert.Equal(t, 350.0, fb.lastReq.Amount)
	assert.Equal(t, models.StatusPending, fb.lastReq.Status)
	assert.Equal(t, "10-17-2026", fb.lastReq.EventDate)

	req := httptest.NewRequest(http.MethodGet, booking.ConfirmationRoute, nil)
	req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: token})
	cw := httptest.NewRecorder()
	r.ServeHTTP(cw, req)
	require.Equal(t, http.StatusOK, cw.Code)
	assert.Equal(t, createdJSON, cw.Body.String())

	cw = httptest.NewRecorder()
	r.ServeHTTP(cw, req)
	assert.Equal(t, http.StatusFound, cw.Code)
}

func TestSessionRoutesNeedToken(t *testing.T) {
	r := newTestEngine(t, "http://127.0.0.1:0")
	w := call(r, http.MethodGet, "/api/booking/session", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = call(r, http.MethodGet, "/api/booking/session", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicPolicyRoutes(t *testing.T) {
	r := newTestEngine(t, "http://127.0.0.1:0")

	w := call(r, http.MethodGet, "/api/booking/times?date=2026-10-17", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "10:00 AM")

	w = call(r, http.MethodGet, "/api/booking/prices", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = call(r, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = call(r, http.MethodGet, "/api/status", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAllowedOrigins(t *testing.T) {
	prev := config.AppConfig.AllowedOrigins
	t.Cleanup(func() { config.AppConfig.AllowedOrigins = prev })

	config.AppConfig.AllowedOrigins = ""
	assert.Empty(t, allowedOrigins())
	config.AppConfig.AllowedOrigins = "https://book.example.com, https://www.example.com,"
	assert.Equal(t, []string{"https://book.example.com", "https://www.example.com"}, allowedOrigins())
}

func TestCORSWithoutOriginList(t *testing.T) {
	prevOrigins, prevEnv := config.AppConfig.AllowedOrigins, config.AppConfig.Env
	t.Cleanup(func() {
		config.AppConfig.AllowedOrigins = prevOrigins
		config.AppConfig.Env = prevEnv
	})
	config.AppConfig.AllowedOrigins = ""

	preflight := func(r http.Handler) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodOptions, "/api/booking/session", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	config.AppConfig.Env = "production"
	w := preflight(newTestEngine(t, "http://127.0.0.1:0"))
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	config.AppConfig.Env = "development"
	w = preflight(newTestEngine(t, "http://127.0.0.1:0"))
	assert.Equal(t, "https://evil.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}
