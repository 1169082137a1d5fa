package httputil

import (
	"golang.org/x/text/language"

	apperrors "github.com/allisson/trustlog/internal/errors"
)

var (
	supportedLanguages = []language.Tag{language.Turkish, language.English}
	languageMatcher    = language.NewMatcher(supportedLanguages)
)

var messages = map[string]map[language.Tag]string{
	apperrors.KindValidationFailed: {
		language.Turkish: "Gönderilen bilgiler geçersiz",
		language.English: "The submitted data is invalid",
	},
	apperrors.KindConsentMissing: {
		language.Turkish: "Devam etmek için aydınlatma metnini onaylamanız gerekir",
		language.English: "You must accept the consent text to continue",
	},
	apperrors.KindIdentityRejected: {
		language.Turkish: "Bu kimlik türü bu ağda kabul edilmiyor",
		language.English: "This identity type is not accepted on this network",
	},
	apperrors.KindTenantUnknown: {
		language.Turkish: "Kurum bulunamadı",
		language.English: "Unknown organization",
	},
	apperrors.KindNotFound: {
		language.Turkish: "Kayıt bulunamadı",
		language.English: "The requested resource was not found",
	},
	apperrors.KindConflict: {
		language.Turkish: "Kayıt mevcut verilerle çakışıyor",
		language.English: "A conflict occurred with existing data",
	},
	apperrors.KindPersistenceFailed: {
		language.Turkish: "Kayıt şu anda saklanamıyor, lütfen tekrar deneyin",
		language.English: "The record could not be stored, please try again",
	},
	apperrors.KindStorageFull: {
		language.Turkish: "Depolama alanı dolu",
		language.English: "Storage is full",
	},
	apperrors.KindRateLimited: {
		language.Turkish: "Çok fazla istek gönderildi, lütfen bekleyin",
		language.English: "Too many requests, please wait",
	},
	apperrors.KindUnauthorized: {
		language.Turkish: "Kimlik doğrulaması gerekli",
		language.English: "Authentication is required",
	},
	apperrors.KindForbidden: {
		language.Turkish: "Bu işlem için yetkiniz yok",
		language.English: "You don't have permission to access this resource",
	},
	apperrors.KindLocked: {
		language.Turkish: "Hesap çok sayıda hatalı giriş nedeniyle kilitlendi",
		language.English: "Account is locked due to too many failed authentication attempts",
	},
	apperrors.KindPolicyViolation: {
		language.Turkish: "İşlem saklama politikasına aykırı",
		language.English: "The operation violates the retention policy",
	},
	apperrors.KindVerifyFailed: {
		language.Turkish: "İmza doğrulanamadı",
		language.English: "Signature verification failed",
	},
	apperrors.KindSignFailed: {
		language.Turkish: "Zaman damgası alınamadı",
		language.English: "A timestamp could not be obtained",
	},
	apperrors.KindTimeout: {
		language.Turkish: "İşlem zaman aşımına uğradı",
		language.English: "The operation timed out",
	},
	apperrors.KindUnreachable: {
		language.Turkish: "Uzak servise ulaşılamıyor",
		language.English: "The remote service is unreachable",
	},
	apperrors.KindProtocolError: {
		language.Turkish: "Protokol hatası",
		language.English: "Protocol error",
	},
	apperrors.KindInternal: {
		language.Turkish: "Beklenmeyen bir hata oluştu",
		language.English: "An internal error occurred",
	},
}

// PreferredLanguage picks Turkish or English from an Accept-Language header.
// Turkish is the default when the header is empty or unmatched.
func PreferredLanguage(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.Turkish
	}
	_, idx, confidence := languageMatcher.Match(tags...)
	if confidence == language.No {
		return language.Turkish
	}
	return supportedLanguages[idx]
}

// Localize returns the human message for an error kind.
func Localize(kind string, lang language.Tag) string {
	byLang, ok := messages[kind]
	if !ok {
		byLang = messages[apperrors.KindInternal]
	}
	if msg, ok := byLang[lang]; ok {
		return msg
	}
	return byLang[language.Turkish]
}
