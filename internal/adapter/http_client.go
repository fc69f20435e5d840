// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/go-vault-sync/internal/config"
	"github.com/MKhiriev/go-vault-sync/internal/logger"
	"github.com/MKhiriev/go-vault-sync/models"
)

type httpVaultTransport struct {
	client *resty.Client
	log    *logger.Logger

	mu    sync.RWMutex
	token string
}

// NewHTTPVaultTransport builds the HTTP/REST implementation of
// [VaultTransport]. cfg.RequestTimeout bounds every request; callers can
// tighten it further per call through ctx.
func NewHTTPVaultTransport(cfg config.Transport, log *logger.Logger) VaultTransport {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	cli := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout)

	return &httpVaultTransport{client: cli, log: log}
}

func (h *httpVaultTransport) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

func (h *httpVaultTransport) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *httpVaultTransport) FetchDeltas(ctx context.Context, sinceRevision int64) (models.DeltaBatch, error) {
	resp, err := h.request(ctx).
		SetQueryParam("since", strconv.FormatInt(sinceRevision, 10)).
		Get("/api/vault/deltas")
	if err != nil {
		return models.DeltaBatch{}, fmt.Errorf("fetch deltas request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.DeltaBatch{}, err
	}

	var batch models.DeltaBatch
	if err = json.Unmarshal(resp.Body(), &batch); err != nil {
		return models.DeltaBatch{}, fmt.Errorf("decode delta batch: %w", err)
	}

	h.log.Debug().
		Int64("since", sinceRevision).
		Int64("revision", batch.Revision).
		Int("grants", len(batch.KeyGrants)).
		Int("folders", len(batch.FolderUpserts)).
		Int("records", len(batch.RecordUpserts)).
		Int("deletions", len(batch.Deletions)).
		Msg("fetched delta batch")

	return batch, nil
}

func (h *httpVaultTransport) PushChanges(ctx context.Context, req models.PushRequest) (models.PushResult, error) {
	req.Length = len(req.Records)

	resp, err := h.request(ctx).
		SetBody(req).
		Post("/api/vault/push")
	if err != nil {
		return models.PushResult{}, fmt.Errorf("push changes request: %w", err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResult{}, err
	}

	var result models.PushResult
	if err = json.Unmarshal(resp.Body(), &result); err != nil {
		return models.PushResult{}, fmt.Errorf("decode push result: %w", err)
	}

	return result, nil
}

func (h *httpVaultTransport) request(ctx context.Context) *resty.Request {
	r := h.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if token := h.Token(); token != "" {
		r.SetHeader("Authorization", "Bearer "+token)
	}
	return r
}

func mapHTTPError(resp *resty.Response) error {
	if resp.StatusCode() >= http.StatusOK && resp.StatusCode() < http.StatusMultipleChoices {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))

	switch resp.StatusCode() {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrBadRequest, body)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %s", ErrUnauthorized, body)
	case http.StatusGone:
		// The server dropped the history behind our cursor.
		return fmt.Errorf("%w: %s", ErrStaleCursor, body)
	default:
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("%w: http %d: %s", ErrServerUnavailable, resp.StatusCode(), body)
		}
		if body == "" {
			body = http.StatusText(resp.StatusCode())
		}
		return fmt.Errorf("http %d: %s", resp.StatusCode(), body)
	}
}
