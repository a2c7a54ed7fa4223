package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/xuri/excelize/v2"

	"wbsync/internal"
	"wbsync/internal/config"
)

type apiState struct {
	mu     sync.Mutex
	stocks []internal.StockUpdate
	prices []internal.PriceUpdate
}

func newAPIServer(t *testing.T, state *apiState) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v3/warehouses", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]internal.Warehouse{{ID: 100, Name: "Main"}})
	})
	mux.HandleFunc("PUT /api/v3/stocks/100", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Stocks []internal.StockUpdate `json:"stocks"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode stocks: %v", err)
		}
		state.mu.Lock()
		state.stocks = append(state.stocks, payload.Stocks...)
		state.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v2/upload/task", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Data []internal.PriceUpdate `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode prices: %v", err)
		}
		state.mu.Lock()
		state.prices = append(state.prices, payload.Data...)
		state.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	return httptest.NewServer(mux)
}

func writeMappingFixture(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Отчет по номенклатуре"},
		{},
		{},
		{},
		{"", "Артикул производителя", "nmID", "", "", "", "Баркод в системе"},
		{"", "AG 01007", 123456, "", "", "", "4600000000017"},
		{"", "CUK18000-2", 223344, "", "", "", "4600000000024"},
	}
	for r, cols := range rows {
		for c, v := range cols {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "Баркоды итог.xlsx")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeBrandFixture(t *testing.T, dir string) {
	t.Helper()
	content := "Бренд;Артикул;Штрихкод;Цена;Кол-во\n" +
		"BOSCH;AG 01007;4600000000017;200;5\n" +
		"BOSCH;CUK18000-2;4600000000024;99,99;3\n" +
		"BOSCH;UNKNOWN123;4600000000099;50;1\n"
	if err := os.WriteFile(filepath.Join(dir, "brand_BOSCH.csv"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func runConfig(serverURL, mappingFile, targetDir string) config.Config {
	return config.Config{
		APIToken:        "test-token",
		StocksAPIURL:    serverURL + "/api/v3",
		PricesAPIURL:    serverURL + "/api/v2",
		TimeoutMs:       5000,
		RateLimitRPS:    1000,
		MaxAttempts:     3,
		BatchSize:       100,
		Brands:          []string{"BOSCH", "MANN"},
		PriceMultiplier: 1.5,
		MappingFile:     mappingFile,
		TargetDir:       targetDir,
	}
}

func TestUpdateRunEndToEnd(t *testing.T) {
	state := &apiState{}
	server := newAPIServer(t, state)
	defer server.Close()

	dir := t.TempDir()
	mappingFile := writeMappingFixture(t, dir)
	writeBrandFixture(t, dir)

	cfg := runConfig(server.URL, mappingFile, dir)
	svc := NewUpdateService(cfg)

	summary, err := svc.Run(context.Background(), func(string) bool { return true })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if summary.BrandsProcessed != 1 || summary.BrandsSkipped != 1 {
		t.Errorf("brands processed=%d skipped=%d, want 1/1", summary.BrandsProcessed, summary.BrandsSkipped)
	}
	if summary.Matched != 2 || summary.Unmatched != 1 {
		t.Errorf("matched=%d unmatched=%d, want 2/1", summary.Matched, summary.Unmatched)
	}
	if summary.StocksSent != 2 || summary.PricesSent != 2 {
		t.Errorf("stocks=%d prices=%d sent, want 2/2", summary.StocksSent, summary.PricesSent)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	wantPrices := map[int64]int64{123456: 300, 223344: 149}
	for _, price := range state.prices {
		if want, ok := wantPrices[price.NmID]; !ok || price.Price != want {
			t.Errorf("price nmID=%d price=%d, want %d", price.NmID, price.Price, want)
		}
	}
	if len(state.prices) != 2 {
		t.Errorf("server saw %d prices, want 2", len(state.prices))
	}
	wantStocks := map[string]int{"4600000000017": 5, "4600000000024": 3}
	for _, stock := range state.stocks {
		if want, ok := wantStocks[stock.SKU]; !ok || stock.Amount != want {
			t.Errorf("stock sku=%s amount=%d, want %d", stock.SKU, stock.Amount, want)
		}
	}
}

func TestUpdateRunRefusedConfirmation(t *testing.T) {
	state := &apiState{}
	server := newAPIServer(t, state)
	defer server.Close()

	dir := t.TempDir()
	mappingFile := writeMappingFixture(t, dir)
	writeBrandFixture(t, dir)

	svc := NewUpdateService(runConfig(server.URL, mappingFile, dir))
	_, err := svc.Run(context.Background(), func(string) bool { return false })
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("err = %v, want ErrCancelled", err)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if len(state.stocks) != 0 || len(state.prices) != 0 {
		t.Errorf("mutating calls after refusal: stocks=%d prices=%d", len(state.stocks), len(state.prices))
	}
}

func TestUpdateRunMissingToken(t *testing.T) {
	cfg := runConfig("http://unused.test", "", t.TempDir())
	cfg.APIToken = ""
	svc := NewUpdateService(cfg)
	if _, err := svc.Run(context.Background(), func(string) bool { return true }); err == nil {
		t.Fatal("expected error for missing token")
	}
}
