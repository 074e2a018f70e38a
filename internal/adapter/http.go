package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/jobscout/internal/model"
)

const userAgent = "jobscout/1.0 (+https://github.com/amishk599/jobscout)"

// doJSON sends a request and decodes a JSON response into out. body, when
// non-nil, is sent as JSON. Non-200 responses become *model.HTTPError so the
// retry layer can inspect them. label prefixes every error.
func doJSON(ctx context.Context, client *http.Client, method, url string, body any, out any, label string) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", label, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", label, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.NewHTTPError(resp, fmt.Errorf("%s: unexpected status %d", label, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", label, err)
	}
	return nil
}
