package coinbase

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"tukar/internal/transport"
	"tukar/pkg/core"
)

// checkResponse inspects a transport response and returns the typed
// error it carries, or nil for a clean success. The exchange sometimes
// reports failures with a 2xx status and a message body, so success
// bodies are probed for a message key too.
func checkResponse(resp *transport.Response) error {
	if resp.IsError() {
		return classifyError(resp.StatusCode, resp.Body)
	}

	if msg := gjson.GetBytes(resp.Body, "message"); msg.Exists() {
		return newError(core.ErrorTypeExchange, resp.StatusCode, msg.String()).
			WithRaw(string(resp.Body))
	}

	return nil
}

// classifyError maps an error response to the typed failure it
// describes. Only 400 bodies carry the structured messages this
// exchange documents; other statuses fall back to the generic status
// mapping, keeping whatever message the body offered.
func classifyError(statusCode int, body []byte) error {
	parsed := gjson.ParseBytes(body)

	if statusCode == http.StatusBadRequest {
		if parsed.IsObject() {
			message := parsed.Get("message").String()
			switch {
			case strings.Contains(message, "price too small"),
				strings.Contains(message, "price too precise"):
				return newError(core.ErrorTypeInvalidOrder, statusCode, message)
			case message == "Insufficient funds":
				return newError(core.ErrorTypeInsufficientFunds, statusCode, message)
			case message == "Invalid API Key":
				return newError(core.ErrorTypeAuthentication, statusCode, message)
			default:
				return newError(core.ErrorTypeExchange, statusCode, message).
					WithRaw(string(body))
			}
		}
		return newError(core.ErrorTypeExchange, statusCode, string(body))
	}

	message := parsed.Get("message").String()
	if message == "" {
		message = http.StatusText(statusCode)
	}
	return newError(core.ErrorTypeFromStatus(statusCode), statusCode, message).
		WithRaw(string(body))
}

func newError(t core.ErrorType, statusCode int, message string) *core.ExchangeError {
	return core.NewExchangeError(exchangeName, t, statusCode, message)
}
