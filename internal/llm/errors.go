package llm

import (
	"fmt"
	"strings"

	app_errors "leetmate/agent/internal/errors"
)

// MapProviderError classifies a raw provider failure into the fixed taxonomy
// the UI knows how to present. Classification goes by HTTP-like status codes
// embedded in the error text, which is how the hosted API reports them
// through its SDK. Anything unrecognized is wrapped generically; nothing is
// swallowed.
func MapProviderError(err error) error {
	if err == nil {
		return nil
	}
	text := err.Error()

	switch {
	case containsCode(text, 400):
		return fmt.Errorf("%w: the request was rejected by the model API", app_errors.ErrBadRequest)
	case containsCode(text, 401):
		return fmt.Errorf("%w: the API key was rejected, check your credentials", app_errors.ErrAuth)
	case containsCode(text, 403):
		return fmt.Errorf("%w: the API key does not allow this model", app_errors.ErrPermission)
	case containsCode(text, 404):
		return fmt.Errorf("%w: the requested model does not exist", app_errors.ErrNotFound)
	case containsCode(text, 429):
		return fmt.Errorf("%w: too many requests, wait a moment and retry", app_errors.ErrRateLimited)
	case containsCode(text, 500), containsCode(text, 503):
		return fmt.Errorf("%w: the model API is having trouble, retry shortly", app_errors.ErrUnavailable)
	default:
		return fmt.Errorf("model request failed: %w", err)
	}
}

func containsCode(text string, code int) bool {
	return strings.Contains(text, fmt.Sprintf("%d", code))
}
