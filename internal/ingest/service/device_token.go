// Package service provides the signed device cookie that stands in for the
// MAC address of a captive portal client.
package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
)

// DeviceTokens issues and checks device cookies of the form "<id>.<mac>",
// where mac is an HMAC-SHA256 over the id.
type DeviceTokens struct {
	key []byte
}

// NewDeviceTokens derives the cookie key from the master key.
func NewDeviceTokens(masterKey []byte) *DeviceTokens {
	return &DeviceTokens{key: cryptoService.DeriveKey(masterKey, cryptoDomain.InfoDeviceCookie)}
}

// Issue returns a fresh device id and its cookie value.
func (d *DeviceTokens) Issue() (id, token string) {
	id = uuid.Must(uuid.NewV7()).String()
	return id, id + "." + d.sign(id)
}

// Parse returns the device id of a cookie value, or false when the cookie was
// not issued with this key.
func (d *DeviceTokens) Parse(token string) (string, bool) {
	id, sig, found := strings.Cut(token, ".")
	if !found || id == "" {
		return "", false
	}
	if !hmac.Equal([]byte(sig), []byte(d.sign(id))) {
		return "", false
	}
	return id, true
}

func (d *DeviceTokens) sign(id string) string {
	mac := hmac.New(sha256.New, d.key)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
