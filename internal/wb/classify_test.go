package wb

import (
	"context"
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		want   Action
	}{
		{name: "rate limit", status: 429, body: "", want: ActionRetry},
		{name: "server error", status: 500, body: "internal", want: ActionRetry},
		{name: "bad gateway", status: 502, body: "", want: ActionRetry},
		{name: "price already set", status: 400, body: `{"errorText":"The specified prices are already set"}`, want: ActionBenign},
		{name: "price already set russian", status: 400, body: `{"errorText":"Цены уже установлены"}`, want: ActionBenign},
		{name: "duplicate", status: 409, body: `{"message":"duplicate sku in request"}`, want: ActionBenign},
		{name: "duplicate russian", status: 409, body: "дубликат позиции", want: ActionBenign},
		{name: "oversized cargo conflict", status: 409, body: "товары КГТ можно добавить только на КГТ-склад", want: ActionSplit},
		{name: "oversized english", status: 409, body: `{"code":"OversizedItemOnRegularWarehouse"}`, want: ActionSplit},
		{name: "plain bad request", status: 400, body: `{"errorText":"invalid token"}`, want: ActionFatal},
		{name: "not found", status: 404, body: "", want: ActionFatal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.status, tc.body); got != tc.want {
				t.Fatalf("Classify(%d, %q)=%v want %v", tc.status, tc.body, got, tc.want)
			}
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	if got := ClassifyError(&APIError{Status: 429, Body: ""}); got != ActionRetry {
		t.Fatalf("429: %v", got)
	}
	if got := ClassifyError(timeoutErr{}); got != ActionRetry {
		t.Fatalf("timeout: %v", got)
	}
	if got := ClassifyError(context.DeadlineExceeded); got != ActionRetry {
		t.Fatalf("deadline: %v", got)
	}
	if got := ClassifyError(context.Canceled); got != ActionFatal {
		t.Fatalf("canceled: %v", got)
	}
	if got := ClassifyError(errors.New("boom")); got != ActionFatal {
		t.Fatalf("plain error: %v", got)
	}
}
