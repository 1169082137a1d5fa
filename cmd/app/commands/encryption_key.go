package commands

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/trustlog/internal/crypto/domain"
	cryptoService "github.com/allisson/trustlog/internal/crypto/service"
)

// RunCreateEncryptionKey generates a 32-byte content key and prints it as
// ENCRYPTION_KEY. When kmsKeyURI is set the key is wrapped by the KMS and
// the printed value is the ciphertext; otherwise the raw key is printed,
// which is only suitable for local development.
func RunCreateEncryptionKey(
	ctx context.Context,
	kmsService cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsProvider, kmsKeyURI string,
) error {
	if (kmsProvider == "") != (kmsKeyURI == "") {
		return fmt.Errorf("--kms-provider and --kms-key-uri are required together")
	}

	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate encryption key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	if kmsKeyURI == "" {
		logger.Warn("generating an unwrapped encryption key, do not use it in production")
		_, _ = fmt.Fprintln(writer, "# Encryption Key (plaintext mode)")
		_, _ = fmt.Fprintln(writer, "# Copy this environment variable to your .env file or secrets manager")
		_, _ = fmt.Fprintln(writer)
		_, _ = fmt.Fprintf(writer, "ENCRYPTION_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(key))
		return nil
	}

	keeper, err := kmsService.OpenKeeper(ctx, kmsKeyURI)
	if err != nil {
		return fmt.Errorf("failed to open KMS keeper: %w", err)
	}
	defer func() {
		if closeErr := keeper.Close(); closeErr != nil {
			logger.Error("failed to close KMS keeper", slog.Any("error", closeErr))
		}
	}()

	ciphertext, err := keeper.Encrypt(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to encrypt encryption key with KMS: %w", err)
	}

	_, _ = fmt.Fprintln(writer, "# Encryption Key (KMS mode)")
	_, _ = fmt.Fprintln(writer, "# Copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintln(writer)
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, _ = fmt.Fprintf(writer, "ENCRYPTION_KEY=\"%s\"\n", base64.StdEncoding.EncodeToString(ciphertext))

	logger.Info("encryption key generated", slog.String("kms_provider", kmsProvider))
	return nil
}
