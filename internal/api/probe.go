package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// Probe checks the primary backend and then each fallback host, each with
// a short timeout, and switches the client to the first one that answers
// without a server error. It returns the selected base URL.
func (c *Client) Probe(ctx context.Context) (string, error) {
	candidates := append([]string{c.primaryURL}, c.fallbackURLs...)

	var errs []error
	for _, base := range candidates {
		err := c.probeOne(ctx, base)
		if err == nil {
			c.mu.Lock()
			changed := c.baseURL != base
			c.baseURL = base
			c.mu.Unlock()

			if changed {
				c.logger.Info("switched backend", zap.String("base_url", base))
			}
			return base, nil
		}

		c.logger.Debug("probe failed", zap.String("base_url", base), zap.Error(err))
		errs = append(errs, fmt.Errorf("%s: %w", base, err))

		if ctx.Err() != nil {
			break
		}
	}

	return "", fmt.Errorf("no reachable backend: %w", errors.Join(errs...))
}

func (c *Client) probeOne(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+c.probePath, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.bypassHeader != "" {
		req.Header.Set(c.bypassHeader, c.bypassValue)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode >= 500 {
		return fmt.Errorf("unhealthy: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return nil
}
