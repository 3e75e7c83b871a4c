package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-photo-engine/internal/catalog"
	apperrors "go-photo-engine/internal/errors"
	"go-photo-engine/pkg/models"
)

// Client submits images to the remote generation service over HTTPS.
// One Submit call is one network round trip: the style list travels with
// the image, and the response carries per-style artifact references.
type Client struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	styles     *catalog.Catalog
	httpClient *http.Client
}

// NewClient creates a remote inference client. The endpoint accepts a
// JSON payload of inline image bytes plus a style list.
func NewClient(endpoint, apiKey string, timeout time.Duration, styles *catalog.Catalog) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:          10,
		MaxIdleConnsPerHost:   2,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		timeout:  timeout,
		styles:   styles,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

type submitPayload struct {
	RequestID string   `json:"request_id"`
	Image     string   `json:"image"`
	StyleIDs  []string `json:"style_ids"`
}

type submitResponse struct {
	Results []struct {
		StyleID     string `json:"style_id"`
		ArtifactURL string `json:"artifact_url"`
	} `json:"results"`
}

// Submit sends the image and style list in a single round trip. The call
// fails as a whole or succeeds; a successful response may omit styles the
// service could not produce, which is a valid sparse result, not an
// error.
func (c *Client) Submit(ctx context.Context, requestID string, image []byte, styleIDs []string) ([]models.ProcessingResult, error) {
	if c.endpoint == "" {
		return nil, apperrors.NewRemoteUnavailableError("remote endpoint not configured", nil)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(submitPayload{
		RequestID: requestID,
		Image:     base64.StdEncoding.EncodeToString(image),
		StyleIDs:  styleIDs,
	})
	if err != nil {
		return nil, apperrors.NewInternalError("encode remote payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, apperrors.NewRemoteUnavailableError("build remote request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, apperrors.NewRemoteTimeoutError("remote call timed out", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, apperrors.NewRemoteUnavailableError("remote call failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decoding
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.NewRemoteUnauthorizedError(
			fmt.Sprintf("remote rejected credentials (status %d)", resp.StatusCode), nil)
	case resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusGatewayTimeout:
		return nil, apperrors.NewRemoteTimeoutError(
			fmt.Sprintf("remote reported timeout (status %d)", resp.StatusCode), nil)
	default:
		return nil, apperrors.NewRemoteUnavailableError(
			fmt.Sprintf("remote returned status %d", resp.StatusCode), nil)
	}

	var decoded submitResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, apperrors.NewMalformedResponseError("undecodable remote response", err)
	}

	requested := make(map[string]struct{}, len(styleIDs))
	for _, id := range styleIDs {
		requested[id] = struct{}{}
	}

	results := make([]models.ProcessingResult, 0, len(decoded.Results))
	seen := make(map[string]struct{}, len(decoded.Results))
	for _, r := range decoded.Results {
		if r.StyleID == "" || r.ArtifactURL == "" {
			return nil, apperrors.NewMalformedResponseError(
				fmt.Sprintf("remote result missing style id or artifact url: %+v", r), nil)
		}
		// Ignore styles we did not ask for and duplicate entries
		if _, ok := requested[r.StyleID]; !ok {
			continue
		}
		if _, dup := seen[r.StyleID]; dup {
			continue
		}
		seen[r.StyleID] = struct{}{}

		premium := false
		if c.styles != nil {
			if spec, ok := c.styles.Lookup(r.StyleID); ok {
				premium = spec.PremiumOnly
			}
		}
		results = append(results, models.ProcessingResult{
			StyleID:     r.StyleID,
			ArtifactRef: r.ArtifactURL,
			Origin:      models.OriginRemote,
			PremiumOnly: premium,
		})
	}
	return results, nil
}
