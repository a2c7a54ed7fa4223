package wb

import (
	"context"
	"errors"
	"net"
	"strings"
)

// Action is the dispatcher's verdict on a failed API call.
type Action int

const (
	// ActionFatal reports the batch and moves on.
	ActionFatal Action = iota
	// ActionRetry sleeps a backoff and tries the batch again.
	ActionRetry
	// ActionBenign treats the response as success (price already at target,
	// duplicate already collapsed upstream).
	ActionBenign
	// ActionSplit resubmits the batch item by item so entries compatible
	// with the warehouse still land.
	ActionSplit
)

// Markers of benign 400/409 response bodies. Matched case-insensitively as
// substrings, both the English and the Russian wording the API is known to
// return.
type bodyRule struct {
	marker string
	action Action
}

var bodyRules = []bodyRule{
	{marker: "already set", action: ActionBenign},
	{marker: "уже установлен", action: ActionBenign},
	{marker: "duplicate", action: ActionBenign},
	{marker: "дубл", action: ActionBenign},
	// item class incompatible with the target warehouse (oversized-cargo
	// items on a regular warehouse and vice versa)
	{marker: "кгт", action: ActionSplit},
	{marker: "oversized", action: ActionSplit},
}

// Classify maps a non-2xx status plus response body onto the dispatcher
// action. Pure function, no network involved.
func Classify(status int, body string) Action {
	if status == 429 || status >= 500 {
		return ActionRetry
	}
	if status == 400 || status == 409 {
		lower := strings.ToLower(body)
		for _, rule := range bodyRules {
			if strings.Contains(lower, rule.marker) {
				return rule.action
			}
		}
	}
	return ActionFatal
}

// ClassifyError folds transport-level failures into the same action space:
// timeouts and connection errors retry like a 5xx, a canceled context is
// fatal.
func ClassifyError(err error) Action {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return Classify(apiErr.Status, apiErr.Body)
	}
	if errors.Is(err, context.Canceled) {
		return ActionFatal
	}
	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return ActionRetry
	}
	return ActionFatal
}
