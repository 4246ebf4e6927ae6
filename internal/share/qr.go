package share

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/weeklycart/internal/model"
)

const (
	defaultQRBaseURL = "https://api.qrserver.com/v1/create-qr-code/"
	qrImageSize      = "200x200"
	probeTimeout     = 3 * time.Second
)

// QRService renders share URLs as QR images via an external endpoint. QR
// generation needs the network, so every call is preceded by a short
// connectivity probe.
type QRService struct {
	client  *http.Client
	baseURL string
}

func NewQRService() *QRService {
	return &QRService{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: defaultQRBaseURL,
	}
}

// Online probes the QR endpoint with a tiny HEAD request. The probe is
// retried once with backoff before the service is declared unreachable; a
// probe that exceeds its timeout counts as offline.
func (s *QRService) Online(ctx context.Context) bool {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(probeCtx, http.MethodHead, s.baseURL+"?size=1x1&data=test", nil)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		resp.Body.Close()
		return nil
	})
	return err == nil
}

// ImageURL builds the QR request URL for an envelope's share link.
// Reachability is checked before the payload ceiling, so an unreachable
// endpoint always surfaces as ErrOffline even for oversized lists.
func (s *QRService) ImageURL(ctx context.Context, baseURL string, env model.ShareEnvelope) (string, error) {
	if !s.Online(ctx) {
		return "", ErrOffline
	}
	shareURL, err := URL(baseURL, env)
	if err != nil {
		return "", err
	}
	if len(shareURL) > MaxQRURLLen {
		return "", ErrTooLarge
	}
	return fmt.Sprintf("%s?size=%s&data=%s", s.baseURL, qrImageSize, url.QueryEscape(shareURL)), nil
}

// FetchImage downloads the rendered QR image. Non-2xx answers map to the
// share error kinds so callers can surface distinct messages.
func (s *QRService) FetchImage(ctx context.Context, imageURL string) (data []byte, contentType string, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build qr request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, "", ErrServiceUnavailable
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return nil, "", ErrPermissionDenied
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, "", ErrServiceUnavailable
	}

	data, err = io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, "", fmt.Errorf("read qr image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}
