// Package corebank talks to the remote banking core over HTTP.
// Each call is a single POST bounded by the configured timeout; retries belong to the caller.
package corebank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/banquito-core-processor/internal/config"
	"github.com/banquito-core-processor/internal/logger"
)

const (
	correlationIDHeader = "X-Correlation-ID"
	maxResponseBytes    = 1 << 20
	maxErrorBodyChars   = 512
)

// HTTPGateway calls the debit, credit and reversal endpoints of the core.
// It is safe for concurrent use; all calls share one connection pool.
type HTTPGateway struct {
	logger      *slog.Logger
	client      *http.Client
	timeout     time.Duration
	debitURL    string
	creditURL   string
	reversalURL string
}

func NewHTTPGateway(logger *slog.Logger, cfg config.CoreBankConfig) *HTTPGateway {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConns = cfg.MaxIdleConns
	transport.MaxIdleConnsPerHost = cfg.MaxIdleConnsPerHost

	return &HTTPGateway{
		logger:      logger,
		client:      &http.Client{Transport: transport},
		timeout:     cfg.Timeout(),
		debitURL:    cfg.DebitURL(),
		creditURL:   cfg.CreditURL(),
		reversalURL: cfg.ReversalURL(),
	}
}

func (g *HTTPGateway) Debit(ctx context.Context, request *CardDebitRequest) (*RemoteCallResult, error) {
	return g.post(ctx, OperationDebit, g.debitURL, request)
}

func (g *HTTPGateway) Credit(ctx context.Context, request *MerchantCreditRequest) (*RemoteCallResult, error) {
	return g.post(ctx, OperationCredit, g.creditURL, request)
}

// ReverseDebit undoes a debit by sending the same body to the reversal endpoint
func (g *HTTPGateway) ReverseDebit(ctx context.Context, request *CardDebitRequest) (*RemoteCallResult, error) {
	return g.post(ctx, OperationReversal, g.reversalURL, request)
}

// post performs exactly one round trip. A 2xx answer with an empty body yields (nil, nil).
func (g *HTTPGateway) post(ctx context.Context, op Operation, url string, body any) (*RemoteCallResult, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode core %s request: %w", op, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build core %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if correlationID := logger.CorrelationID(ctx); correlationID != "" {
		req.Header.Set(correlationIDHeader, correlationID)
	}

	started := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransportError{Operation: op, URL: url, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &TransportError{Operation: op, URL: url, Err: err}
	}

	g.logger.Debug("core call finished",
		"operation", op,
		"status_code", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{Operation: op, StatusCode: resp.StatusCode, Body: truncate(string(raw))}
		var decoded coreResponse
		if json.Unmarshal(raw, &decoded) == nil {
			statusErr.Message = decoded.Message
		}
		return nil, statusErr
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	var decoded coreResponse
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return nil, fmt.Errorf("failed to decode core %s response: %w", op, err)
	}
	return decoded.toResult(), nil
}

func truncate(s string) string {
	if len(s) <= maxErrorBodyChars {
		return s
	}
	return s[:maxErrorBodyChars] + "..."
}
