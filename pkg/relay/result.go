package relay

import "net/http"

// Result is the outcome of an install or uninstall request, rendered to
// the caller as JSON {success, message}.
type Result struct {
	Status  int
	Success bool
	Message string
}

// DeliverResult is the outcome of one webhook delivery. Body is the
// plain-text response line.
type DeliverResult struct {
	Status int
	Body   string
}

const (
	deliverSuccessBody      = "成功"
	deliverUnauthorizedBody = "认证失败"
	deliverErrorBody        = "服务器内部错误"
)

func deliverSuccess() DeliverResult {
	return DeliverResult{Status: http.StatusOK, Body: deliverSuccessBody}
}

func deliverUnauthorized() DeliverResult {
	return DeliverResult{Status: http.StatusUnauthorized, Body: deliverUnauthorizedBody}
}

func deliverInternalError() DeliverResult {
	return DeliverResult{Status: http.StatusInternalServerError, Body: deliverErrorBody}
}

// relayOutcome tags the primary-then-fallback attempt sequence of the
// fresh-inbound branch.
type relayOutcome int

const (
	relayDelivered relayOutcome = iota
	relayDeliveredWithoutLink
	relayFailed
)
