package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jeffjackson/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(Config{
		BaseURL:         srv.URL,
		BookingEndpoint: srv.URL + "/api/bookings",
		GatewayBaseURL:  srv.URL + "/api/gateway",
		Timeout:         2 * time.Second,
	}, nil)
	return c, srv
}

func TestCheckSlotBlockSendsBackendDateFormat(t *testing.T) {
	var got slotBlockRequest
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, slotBlockPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	require.NoError(t, c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM"))
	assert.Equal(t, slotBlockRequest{Date: "10-24-2026", Time: "10:00 AM"}, got)
}

func TestCheckRejection(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"status":"error","message":"DJ is unavailable"}`))
	})

	err := c.CheckDuplicate(context.Background(), "10-24-2026", "10:00 AM", "a@b.co")
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, "DJ is unavailable", rej.Message)
	msg, ok := IsRejection(err)
	assert.True(t, ok)
	assert.Equal(t, "DJ is unavailable", msg)
}

func TestCheckRejectionOn200(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"error"}`))
	})
	err := c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM")
	var rej *RejectionError
	require.ErrorAs(t, err, &rej)
	assert.Empty(t, rej.Message)
}

func TestCheckPassesOnlyOnOK(t *testing.T) {
	t.Run("non-ok status rejects with message", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"blocked","message":"DJ unavailable"}`))
		})
		err := c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM")
		msg, rejected := IsRejection(err)
		require.True(t, rejected, "err=%v", err)
		assert.Equal(t, "DJ unavailable", msg)
	})

	for name, body := range map[string]string{
		"empty object": `{}`,
		"no status":    `{"available":false}`,
	} {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			})
			err := c.CheckDuplicate(context.Background(), "10-24-2026", "10:00 AM", "a@b.co")
			var te *TransportError
			assert.ErrorAs(t, err, &te)
		})
	}

	t.Run("ok is case-insensitive", func(t *testing.T) {
		c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status":"OK"}`))
		})
		assert.NoError(t, c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM"))
	})
}

func TestTransportClassification(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"bare 500": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream exploded"))
		},
		"undecodable 200": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("<html>"))
		},
	}
	for name, h := range cases {
		t.Run(name, func(t *testing.T) {
			c, _ := newTestClient(t, h)
			err := c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM")
			var te *TransportError
			assert.ErrorAs(t, err, &te)
			_, rejected := IsRejection(err)
			assert.False(t, rejected)
		})
	}
}

func TestTransportOnNetworkFailure(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()
	err := c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM")
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestTransportOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()
	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, nil)

	err := c.CheckSlotBlock(context.Background(), "10-24-2026", "10:00 AM")
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestCreateBookingForwardsRecordVerbatim(t *testing.T) {
	var calls int32
	body := `{"uniqueId":"BK-77","amount":350,"eventType":"Birthday","status":"PENDING","createdAt":"2026-10-18T10:00:00Z"}`
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/api/bookings", r.URL.Path)
		assert.Equal(t, "idem-1", r.Header.Get("Idempotency-Key"))
		var req CreateBookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 350.0, req.Amount)
		assert.Equal(t, models.StatusPending, req.Status)
		assert.Equal(t, "ABCDE12345FGHIJ6Z", req.PaypalTransactionID)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(body))
	})

	draft := models.BookingDraft{
		EventDate: time.Date(2026, 10, 24, 0, 0, 0, 0, time.UTC),
		EventTime: "10:00 AM",
		EventType: models.EventBirthday,
		Price:     350,
		Client:    models.ClientDetails{Name: "Ana", Email: "ana@example.com", Street: "1 Main", City: "Austin"},
	}
	req := NewCreateBookingRequest(draft, models.ManualProof("ABCDE12345FGHIJ6Z"))
	assert.Equal(t, "10-24-2026", req.EventDate)

	rec, err := c.CreateBooking(context.Background(), req, "idem-1")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, "BK-77", rec.UniqueID)
	assert.JSONEq(t, body, string(rec.Raw()))
}

func TestCreateBookingMissingUniqueID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"amount":350}`))
	})
	_, err := c.CreateBooking(context.Background(), CreateBookingRequest{}, "")
	var te *TransportError
	assert.ErrorAs(t, err, &te)
}

func TestGatewayOrderAndVerify(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/gateway/order":
			_, _ = w.Write([]byte(`{"amount":350,"gatewayOrderId":"order_9"}`))
		case "/api/gateway/callback":
			var req VerifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, models.PaymentDeposit, req.PaymentType)
			_, _ = w.Write([]byte(`{"status":"success","booking":{"uniqueId":"BK-9","amount":350,"status":"PENDING"}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	order, err := c.CreateGatewayOrder(context.Background(), OrderRequest{Amount: 350, PaymentType: models.PaymentDeposit})
	require.NoError(t, err)
	assert.Equal(t, "order_9", order.GatewayOrderID)

	rec, err := c.VerifyGatewayPayment(context.Background(), VerifyRequest{
		OrderID: "order_9", PaymentID: "pay_1", Signature: "sig", PaymentType: models.PaymentDeposit,
	})
	require.NoError(t, err)
	assert.Equal(t, "BK-9", rec.UniqueID)
	assert.JSONEq(t, `{"uniqueId":"BK-9","amount":350,"status":"PENDING"}`, string(rec.Raw()))
}

func TestVerifyFailure(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"failure","message":"signature mismatch"}`))
	})
	_, err := c.VerifyGatewayPayment(context.Background(), VerifyRequest{})
	msg, ok := IsRejection(err)
	assert.True(t, ok)
	assert.Equal(t, "signature mismatch", msg)
}

func TestPing(t *testing.T) {
	c, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/down" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
	code, err := c.Ping(context.Background(), srv.URL+"/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, code)

	code, err = c.Ping(context.Background(), srv.URL+"/down")
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, code)

	_, err = c.Ping(context.Background(), "http://127.0.0.1:0/x")
	assert.True(t, err != nil && !errors.Is(err, context.Canceled))
}
