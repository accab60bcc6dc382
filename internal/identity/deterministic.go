package identity

import (
	"strconv"
	"strings"

	hashid "github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// UUID derives a deterministic UUID from a stable key using go-hashid.
//
// The key is hashed as given. Case and punctuation are significant, so
// "Abc" and "abc" map to different ids.
func UUID(key string) uuid.UUID {
	if strings.TrimSpace(key) == "" {
		return uuid.Nil
	}
	uid, err := hashid.NewUUID(key, hashid.WithHashAlgorithm(hashid.SHA256), hashid.WithNormalization(false))
	if err != nil || uid == uuid.Nil {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(key))
	}
	return uid
}

// BlobUUID identifies the translation blob row of (modelType, modelKey, locale).
func BlobUUID(modelType, modelKey, locale string) uuid.UUID {
	return UUID(join("translatable:attributes", modelType, modelKey, locale))
}

// IndexUUID identifies the index row of (modelType, modelKey, locale, item).
func IndexUUID(modelType, modelKey, locale, item string) uuid.UUID {
	return UUID(join("translatable:indexes", modelType, modelKey, locale, item))
}

// join length-prefixes every part so separators inside a part cannot shift
// bytes into its neighbour.
func join(prefix string, parts ...string) string {
	var builder strings.Builder
	builder.WriteString(prefix)
	for _, part := range parts {
		builder.WriteByte(':')
		builder.WriteString(strconv.Itoa(len(part)))
		builder.WriteByte(':')
		builder.WriteString(part)
	}
	return builder.String()
}
