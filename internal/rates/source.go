package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"keepsake/internal/domain"
)

const DefaultURL = "https://open.er-api.com/v6/latest/USD"

// Source supplies a USD-based rate table.
type Source interface {
	Fetch(ctx context.Context) (domain.Rates, error)
}

// HTTPSource reads an open.er-api.com style document.
type HTTPSource struct {
	url        string
	httpClient *http.Client
}

func NewHTTPSource(url string) *HTTPSource {
	if url == "" {
		url = DefaultURL
	}
	return &HTTPSource{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type apiResponse struct {
	Result   string             `json:"result"`
	BaseCode string             `json:"base_code"`
	Rates    map[string]float64 `json:"rates"`
}

func (s *HTTPSource) Fetch(ctx context.Context) (domain.Rates, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream error: status %d", resp.StatusCode)
	}

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if body.Result != "success" {
		return nil, fmt.Errorf("upstream result %q", body.Result)
	}
	if body.BaseCode != "" && body.BaseCode != domain.BaseCurrency {
		return nil, fmt.Errorf("unexpected base %q", body.BaseCode)
	}

	out := domain.Rates{}
	for _, code := range domain.Known {
		if v, ok := body.Rates[code]; ok {
			out[code] = v
		}
	}
	out = out.Clean()
	if len(out) < 2 {
		return nil, fmt.Errorf("no usable rates in response")
	}
	return out, nil
}
