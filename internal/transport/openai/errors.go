package openai

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"

	"github.com/kailas-cloud/reposcout/internal/domain"
)

// parseAPIError extracts a human-readable error from the API response and
// classifies it into a domain sentinel: 429 is rate limiting, 5xx is a
// transient provider failure, everything else is a permanent rejection.
// Transport-level failures without a status code count as transient.
func parseAPIError(op string, err error) error {
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		wrap := classifyStatus(reqErr.HTTPStatusCode)
		detail := extractDetail(reqErr.Body)
		if detail != "" {
			return fmt.Errorf("%s API error %d: %s: %w",
				op, reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("%s API error %d: %s: %w",
			op, reqErr.HTTPStatusCode, string(reqErr.Body), wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s API error %d: %s: %w",
			op, apiErr.HTTPStatusCode, apiErr.Message, classifyStatus(apiErr.HTTPStatusCode))
	}

	return fmt.Errorf("%s request failed: %v: %w", op, err, domain.ErrProviderUnavailable)
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return domain.ErrRateLimited
	case status >= http.StatusInternalServerError:
		return domain.ErrProviderUnavailable
	default:
		return domain.ErrProviderRequest
	}
}

// extractDetail extracts the "detail" field some OpenAI-compatible gateways
// put in error bodies.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
