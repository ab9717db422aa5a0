package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"digitaldemocracy/internal/studio"
)

// classify turns a provider error into a *studio.GenerationError. Only the video
// path can reject the capability grant; everywhere else failures are recoverable.
func classify(op string, err error, videoPath bool, marker string) error {
	if err == nil {
		return nil
	}
	var ge *studio.GenerationError
	if errors.As(err, &ge) {
		return ge
	}

	msg := err.Error()
	code := 0
	if apiErr, ok := asAPIError(err); ok {
		code = apiErr.Code
		if apiErr.Message != "" {
			msg = apiErr.Message
		}
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		msg = fmt.Sprintf("%s timed out", op)
	case errors.Is(err, context.Canceled):
		msg = fmt.Sprintf("%s was cancelled", op)
	}

	if videoPath && (code == http.StatusUnauthorized || code == http.StatusForbidden || strings.Contains(msg, marker)) {
		return &studio.GenerationError{Op: op, Kind: studio.FailureCredentialInvalid, Message: msg, Err: err}
	}
	return &studio.GenerationError{Op: op, Kind: studio.FailureRecoverable, Message: msg, Err: err}
}

func asAPIError(err error) (genai.APIError, bool) {
	var v genai.APIError
	if errors.As(err, &v) {
		return v, true
	}
	var p *genai.APIError
	if errors.As(err, &p) && p != nil {
		return *p, true
	}
	return genai.APIError{}, false
}

// dataURL encodes inline media as a data: URI, the locator used for images.
func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// parseDataURL decodes a base64 data: URI.
func parseDataURL(locator string) (mimeType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(locator, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URL")
	}
	mimeType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decode data URL: %w", err)
	}
	return mimeType, data, nil
}
