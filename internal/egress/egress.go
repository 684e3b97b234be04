package egress

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
)

// maxBody bounds how much of the lookup response is read
const maxBody = 64 << 10

// Lookup asks an IP information service where traffic currently exits.
// The response must be JSON; Field is a gjson path such as "country" or "location.city".
type Lookup struct {
	client *http.Client
	url    string
	field  string
}

// NewLookup creates a lookup against url reading field from the JSON response
func NewLookup(url, field string, timeout time.Duration) *Lookup {
	return &Lookup{
		client: &http.Client{Timeout: timeout},
		url:    url,
		field:  field,
	}
}

// Lookup fetches the service and returns the configured field
func (l *Lookup) Lookup(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("egress lookup returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("egress lookup response is not JSON")
	}

	value := gjson.GetBytes(body, l.field)
	if !value.Exists() {
		return "", fmt.Errorf("JSON path '%s' not found in response", l.field)
	}
	return value.String(), nil
}
