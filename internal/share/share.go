// Package share turns list snapshots into compact URL-safe tokens, share
// links and QR codes, and back.
package share

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/dukerupert/weeklycart/internal/model"
)

// Size ceilings for generated share artifacts.
const (
	// MaxURLLen is the longest share URL most platforms handle.
	MaxURLLen = 8192
	// MaxQRURLLen is the binary capacity of a version-40 QR code; the QR
	// endpoint rejects anything longer.
	MaxQRURLLen = 2953
	// MaxDecodedBytes bounds a decoded token payload before JSON parsing.
	MaxDecodedBytes = 1 << 20
)

// Caps applied by Compress when the uncompressed envelope is too large.
const (
	compressedListNameLen  = 50
	compressedItemNameLen  = 30
	compressedAmountLen    = 10
	compressedItemsSingle  = 50
	compressedItemsPerList = 20
)

var (
	// ErrTooLarge means the encoded share artifact exceeds its ceiling.
	// Callers retry once with a compressed envelope before giving up.
	ErrTooLarge = errors.New("share data too large")
	// ErrOffline means the connectivity probe failed.
	ErrOffline = errors.New("network unreachable")
	// ErrServiceUnavailable means the QR endpoint answered with a failure.
	ErrServiceUnavailable = errors.New("qr service unavailable")
	// ErrPermissionDenied means the share surface refused the request.
	ErrPermissionDenied = errors.New("share permission denied")
)

// Encode serializes an envelope into a URL-safe token: canonical JSON,
// percent-escaped, then base64url.
func Encode(env model.ShareEnvelope) (string, error) {
	raw, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("encode envelope: %w", err)
	}
	return base64.URLEncoding.EncodeToString([]byte(url.QueryEscape(string(raw)))), nil
}

// Decode inverts Encode. The result is untrusted until it passes the import
// validator; Decode only guarantees well-formed transport.
func Decode(token string) (model.ShareEnvelope, error) {
	var env model.ShareEnvelope

	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return env, fmt.Errorf("invalid share token encoding: %w", err)
	}
	if len(raw) > MaxDecodedBytes {
		return env, fmt.Errorf("decoded share data exceeds %d bytes", MaxDecodedBytes)
	}
	unescaped, err := url.QueryUnescape(string(raw))
	if err != nil {
		return env, fmt.Errorf("invalid share token escaping: %w", err)
	}
	if err := json.Unmarshal([]byte(unescaped), &env); err != nil {
		return env, fmt.Errorf("invalid share token payload: %w", err)
	}
	return env, nil
}

// URL builds the import link for an envelope. Returns ErrTooLarge when the
// result exceeds the platform URL ceiling.
func URL(baseURL string, env model.ShareEnvelope) (string, error) {
	token, err := Encode(env)
	if err != nil {
		return "", err
	}
	link := baseURL + "?import=" + token
	if len(link) > MaxURLLen {
		return "", ErrTooLarge
	}
	return link, nil
}

// Text renders a human-readable share message with the import link appended.
// Single-list envelopes get one line per item; multi-list envelopes get a
// per-list summary.
func Text(baseURL string, env model.ShareEnvelope) (string, error) {
	link, err := URL(baseURL, env)
	if err != nil {
		return "", err
	}

	var b []byte
	if env.List != nil {
		b = fmt.Appendf(b, "🛒 %s\n\n", env.List.Name)
		for _, item := range env.List.Items {
			b = fmt.Appendf(b, "• %s", item.Name)
			if item.Amount != "" && item.Amount != model.DefaultAmount {
				b = fmt.Appendf(b, " (%s)", item.Amount)
			}
			b = append(b, '\n')
		}
	} else {
		b = fmt.Appendf(b, "Einkaufslisten (%d)\n\n", len(env.Lists))
		for _, l := range env.Lists {
			b = fmt.Appendf(b, "📋 %s (%d Artikel)\n", l.Name, len(l.Items))
		}
	}
	b = fmt.Appendf(b, "\nLink zum Importieren: %s", link)
	return string(b), nil
}

// Compress returns a lossy, size-reduced copy of the envelope. It is a last
// resort, applied only after the normal encoding signalled ErrTooLarge.
func Compress(env model.ShareEnvelope) model.ShareEnvelope {
	out := env
	if env.List != nil {
		l := compressList(*env.List, compressedItemsSingle)
		out.List = &l
		return out
	}
	out.Lists = make([]model.SharedList, 0, len(env.Lists))
	for _, l := range env.Lists {
		out.Lists = append(out.Lists, compressList(l, compressedItemsPerList))
	}
	return out
}

func compressList(l model.SharedList, maxItems int) model.SharedList {
	out := model.SharedList{Name: truncate(l.Name, compressedListNameLen)}
	items := l.Items
	if len(items) > maxItems {
		items = items[:maxItems]
	}
	out.Items = make([]model.SharedItem, 0, len(items))
	for _, item := range items {
		out.Items = append(out.Items, model.SharedItem{
			Name:   truncate(item.Name, compressedItemNameLen),
			Amount: truncate(item.Amount, compressedAmountLen),
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
