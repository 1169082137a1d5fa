package domain

// Dek is a per-archive data encryption key wrapped by the content key. The
// plaintext key never leaves memory; only the wrapped form is persisted on
// the ArchiveJob row.
type Dek struct {
	Algorithm    Algorithm
	EncryptedKey []byte
	Nonce        []byte
}
