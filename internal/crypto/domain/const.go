package domain

// Algorithm represents the AEAD algorithm used to seal data at rest.
type Algorithm string

const (
	// AESGCM is AES-256-GCM with a 128-bit random nonce. Used for record fields
	// and, by default, for archive blobs.
	AESGCM Algorithm = "aes-gcm"

	// ChaCha20 is XChaCha20-Poly1305 with a 192-bit random nonce. Available for
	// archive blobs on hosts without AES hardware acceleration.
	ChaCha20 Algorithm = "xchacha20-poly1305"
)

// HKDF info labels. Changing any of them invalidates the derived keys.
const (
	InfoIndexDigest  = "index-digest-v1:"
	InfoTSASigning   = "tsa-signing-v1"
	InfoDeviceCookie = "device-cookie-v1"
	InfoAuditSigning = "dossier-audit-signing-v1"
)
