// Package qrcode renders member QR codes and decodes scanned payloads.
package qrcode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"
	"net/url"
	"regexp"
	"strings"

	goqr "github.com/skip2/go-qrcode"
)

const (
	// DefaultBaseURL is used when APP_URL is unset.
	DefaultBaseURL = "http://localhost:3000"
	// Size is the rendered PNG edge in pixels.
	Size = 300
)

var (
	// ErrInvalidCode means the payload carries no member id.
	ErrInvalidCode = errors.New("invalid qr code")

	dark  = color.RGBA{R: 0x1e, G: 0x3a, B: 0x5f, A: 0xff}
	light = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	rawID = regexp.MustCompile(`(?i)^[a-f0-9-]{36}$`)
)

// MemberURL is the card URL encoded in a member's QR code.
func MemberURL(baseURL, id string) string {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return strings.TrimRight(baseURL, "/") + "/member/" + id
}

// Generate returns the member's QR code as a PNG data URL.
func Generate(baseURL, id string) (string, error) {
	q, err := goqr.New(MemberURL(baseURL, id), goqr.Medium)
	if err != nil {
		return "", fmt.Errorf("encode qr: %w", err)
	}
	q.ForegroundColor = dark
	q.BackgroundColor = light
	png, err := q.PNG(Size)
	if err != nil {
		return "", fmt.Errorf("render qr: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// ExtractMemberID returns the member id carried by a scanned payload: the
// path segment after "member" for absolute URLs, or the payload itself when
// it looks like a bare UUID.
func ExtractMemberID(payload string) (string, error) {
	payload = strings.TrimSpace(payload)
	if u, err := url.Parse(payload); err == nil && u.Scheme != "" && u.Host != "" {
		parts := strings.Split(u.Path, "/")
		for i, p := range parts {
			if p == "member" && i+1 < len(parts) && parts[i+1] != "" {
				return parts[i+1], nil
			}
		}
		return "", ErrInvalidCode
	}
	if rawID.MatchString(payload) {
		return payload, nil
	}
	return "", ErrInvalidCode
}
