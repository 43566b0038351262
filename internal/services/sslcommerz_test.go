package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/markjakearzadon/ieltspro-gobackend.git/internal/models"
)

func testSession() SessionRequest {
	return SessionRequest{
		TransactionID: "TX1",
		Amount:        decimal.NewFromInt(50),
		Currency:      "BDT",
		ProductName:   "IELTS Certificate",
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		SuccessURL:    "https://app.example.com/api/payment/success",
		FailURL:       "https://app.example.com/api/payment/failed",
		CancelURL:     "https://app.example.com/api/payment/cancel",
	}
}

func TestSSLCommerzService_InitSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gwprocess/v4/api.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
			return
		}
		want := map[string]string{
			"store_id":        "store",
			"store_passwd":    "pass",
			"total_amount":    "50.00",
			"currency":        "BDT",
			"tran_id":         "TX1",
			"success_url":     "https://app.example.com/api/payment/success",
			"product_profile": "non-physical-goods",
			"shipping_method": "NO",
		}
		for k, v := range want {
			if got := r.PostForm.Get(k); got != v {
				t.Errorf("form %s = %q, want %q", k, got, v)
			}
		}
		w.Write([]byte(`{"status":"SUCCESS","sessionkey":"abc","GatewayPageURL":"https://sandbox.sslcommerz.com/EasyCheckOut/abc"}`))
	}))
	defer server.Close()

	svc := NewSSLCommerzService("store", "pass", server.URL, nil, time.Second)
	session, err := svc.InitSession(context.Background(), testSession())
	if err != nil {
		t.Fatalf("InitSession failed: %v", err)
	}
	if session.GatewayPageURL != "https://sandbox.sslcommerz.com/EasyCheckOut/abc" {
		t.Errorf("GatewayPageURL = %q", session.GatewayPageURL)
	}
}

func TestSSLCommerzService_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"failed status", http.StatusOK, `{"status":"FAILED","failedreason":"Store Credential Error Or Store is De-active"}`},
		{"no page url", http.StatusOK, `{"status":"SUCCESS"}`},
		{"http error", http.StatusServiceUnavailable, ``},
		{"not json", http.StatusOK, `<html></html>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := NewSSLCommerzService("store", "pass", server.URL, nil, time.Second).InitSession(context.Background(), testSession())
			if !errors.Is(err, ErrGateway) {
				t.Fatalf("expected ErrGateway, got %v", err)
			}
		})
	}
}

func TestSSLCommerzService_CustomerFields(t *testing.T) {
	tests := []struct {
		name                string
		address, phone      string
		wantAddr, wantPhone string
	}{
		{"given", "House 12, Road 5", "01812345678", "House 12, Road 5", "01812345678"},
		{"absent", "", " ", "N/A", "01700000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if err := r.ParseForm(); err != nil {
					t.Errorf("ParseForm: %v", err)
					return
				}
				if got := r.PostForm.Get("cus_add1"); got != tt.wantAddr {
					t.Errorf("cus_add1 = %q, want %q", got, tt.wantAddr)
				}
				if got := r.PostForm.Get("cus_phone"); got != tt.wantPhone {
					t.Errorf("cus_phone = %q, want %q", got, tt.wantPhone)
				}
				w.Write([]byte(`{"status":"SUCCESS","GatewayPageURL":"https://sandbox.sslcommerz.com/EasyCheckOut/abc"}`))
			}))
			defer server.Close()

			req := testSession()
			req.CustomerAddress = tt.address
			req.CustomerPhone = tt.phone
			if _, err := NewSSLCommerzService("store", "pass", server.URL, nil, time.Second).InitSession(context.Background(), req); err != nil {
				t.Fatalf("InitSession failed: %v", err)
			}
		})
	}
}

func TestSSLCommerzService_ValidateOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/validator/api/validationserverAPI.php" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("val_id") != "VAL1" || q.Get("store_id") != "store" || q.Get("store_passwd") != "pass" || q.Get("format") != "json" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.Write([]byte(`{"status":"VALID","tran_id":"TX1","val_id":"VAL1","amount":"50.00","currency":"BDT","currency_type":"BDT","currency_amount":"50.00"}`))
	}))
	defer server.Close()

	order, err := NewSSLCommerzService("store", "pass", server.URL, nil, time.Second).ValidateOrder(context.Background(), "VAL1")
	if err != nil {
		t.Fatalf("ValidateOrder failed: %v", err)
	}
	if order.Status != "VALID" || order.TranID != "TX1" {
		t.Errorf("unexpected order %+v", order)
	}
}

func TestSSLCommerzService_ValidateOrderUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewSSLCommerzService("store", "pass", server.URL, nil, time.Second).ValidateOrder(context.Background(), "VAL1")
	if !errors.Is(err, ErrGateway) {
		t.Fatalf("expected ErrGateway, got %v", err)
	}
}

func TestOrderValidation_Mismatch(t *testing.T) {
	tx := &models.Transaction{TransactionID: "TX1", Amount: decimal.NewFromInt(50), Currency: "BDT"}
	valid := func() OrderValidation {
		return OrderValidation{Status: "VALID", TranID: "TX1", CurrencyType: "BDT", CurrencyAmount: "50.00"}
	}

	tests := []struct {
		name   string
		edit   func(*OrderValidation)
		wantOK bool
	}{
		{"valid", func(o *OrderValidation) {}, true},
		{"already validated", func(o *OrderValidation) { o.Status = "VALIDATED" }, true},
		{"converted amount only", func(o *OrderValidation) { o.CurrencyAmount, o.CurrencyType, o.Amount = "", "", "50" }, true},
		{"invalid", func(o *OrderValidation) { o.Status = "INVALID_TRANSACTION" }, false},
		{"other transaction", func(o *OrderValidation) { o.TranID = "TX2" }, false},
		{"short payment", func(o *OrderValidation) { o.CurrencyAmount = "5.00" }, false},
		{"other currency", func(o *OrderValidation) { o.CurrencyType = "USD" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := valid()
			tt.edit(&order)
			if reason := order.mismatch(tx); (reason == "") != tt.wantOK {
				t.Errorf("mismatch = %q, want ok=%v", reason, tt.wantOK)
			}
		})
	}
}
