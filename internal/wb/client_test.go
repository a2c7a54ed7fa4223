package wb

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"wbsync/internal"
	"wbsync/internal/config"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func testConfig() config.Config {
	cfg, _ := config.Load()
	cfg.APIToken = "test-token"
	cfg.StocksAPIURL = "https://stocks.test/api/v3"
	cfg.PricesAPIURL = "https://prices.test/api/v2"
	cfg.RateLimitRPS = 1000
	return cfg
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestWarehouses(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.URL.Path != "/api/v3/warehouses" {
				t.Fatalf("unexpected path %s", r.URL.Path)
			}
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Fatalf("auth header %q", got)
			}
			return jsonResponse(200, `[{"id":123,"name":"Основной"},{"id":456,"name":"КГТ"}]`), nil
		}),
	}

	warehouses, err := client.Warehouses(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(warehouses) != 2 || warehouses[0].ID != 123 || warehouses[1].Name != "КГТ" {
		t.Fatalf("warehouses=%+v", warehouses)
	}
}

func TestMissingTokenIsPreflightError(t *testing.T) {
	cfg := testConfig()
	cfg.APIToken = ""
	client := NewClient(cfg)
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			t.Fatal("request must not be sent without a token")
			return nil, nil
		}),
	}
	if _, err := client.Warehouses(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestUpdateStocksPayloadAndAPIError(t *testing.T) {
	var sent map[string]any
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method != http.MethodPut || r.URL.Path != "/api/v3/stocks/123" {
				t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			blob, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(blob, &sent); err != nil {
				t.Fatal(err)
			}
			return jsonResponse(409, `{"message":"conflict"}`), nil
		}),
	}

	err := client.UpdateStocks(context.Background(), 123, []internal.StockUpdate{
		{SKU: "4600000000017", Amount: 5},
	})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("err=%v", err)
	}

	stocks, ok := sent["stocks"].([]any)
	if !ok || len(stocks) != 1 {
		t.Fatalf("payload=%v", sent)
	}
	entry := stocks[0].(map[string]any)
	if entry["sku"] != "4600000000017" || entry["amount"] != float64(5) {
		t.Fatalf("entry=%v", entry)
	}
	if _, present := entry["chrtId"]; present {
		t.Fatal("zero chrtId must be omitted")
	}
}

func TestUploadPricesPayload(t *testing.T) {
	client := NewClient(testConfig())
	client.httpClient = &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			if r.Method != http.MethodPost || r.URL.Host != "prices.test" || r.URL.Path != "/api/v2/upload/task" {
				t.Fatalf("unexpected request %s %s%s", r.Method, r.URL.Host, r.URL.Path)
			}
			blob, _ := io.ReadAll(r.Body)
			var payload struct {
				Data []internal.PriceUpdate `json:"data"`
			}
			if err := json.Unmarshal(blob, &payload); err != nil {
				t.Fatal(err)
			}
			if len(payload.Data) != 1 || payload.Data[0].NmID != 123456 || payload.Data[0].Price != 300 {
				t.Fatalf("payload=%+v", payload)
			}
			return jsonResponse(200, `{}`), nil
		}),
	}

	err := client.UploadPrices(context.Background(), []internal.PriceUpdate{
		{NmID: 123456, Price: 300, Discount: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
}
