package dto

import (
	"time"

	ingestDomain "github.com/allisson/trustlog/internal/ingest/domain"
)

// LandingResponse is the portal landing representation.
type LandingResponse struct {
	Tenant                      string `json:"tenant"`
	DisplayName                 string `json:"display_name"`
	ConsentText                 string `json:"consent_text"`
	ThemeColor                  string `json:"theme_color"`
	LogoURL                     string `json:"logo_url"`
	AllowForeignIdentity        bool   `json:"allow_foreign_identity"`
	RememberDeviceWindowSeconds int64  `json:"remember_device_window_seconds"`
}

// MapLandingToResponse converts a landing to its response body.
func MapLandingToResponse(l *ingestDomain.Landing) LandingResponse {
	return LandingResponse{
		Tenant:                      l.Slug,
		DisplayName:                 l.DisplayName,
		ConsentText:                 l.ConsentText,
		ThemeColor:                  l.ThemeColor,
		LogoURL:                     l.LogoURL,
		AllowForeignIdentity:        l.AllowForeignIdentity,
		RememberDeviceWindowSeconds: int64(l.RememberDeviceWindow / time.Second),
	}
}

// ReceiptResponse confirms an admitted session.
type ReceiptResponse struct {
	RecordID          string    `json:"record_id"`
	EntryTime         time.Time `json:"entry_time"`
	Remembered        bool      `json:"remembered"`
	LastOriginalLogin time.Time `json:"last_original_login"`
	RemainingSeconds  int64     `json:"remaining_seconds"`
	Suspicious        bool      `json:"suspicious"`
}

// MapReceiptToResponse converts a receipt to its response body.
func MapReceiptToResponse(r *ingestDomain.Receipt) ReceiptResponse {
	return ReceiptResponse{
		RecordID:          r.RecordID.String(),
		EntryTime:         r.EntryTime,
		Remembered:        r.Remembered,
		LastOriginalLogin: r.LastOriginalLogin,
		RemainingSeconds:  int64(r.Remaining / time.Second),
		Suspicious:        r.Suspicious,
	}
}
