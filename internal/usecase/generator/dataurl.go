package generator

import (
	"encoding/base64"
	"net/url"
	"strings"
	"unicode/utf8"

	"app-deployer/internal/domain/entity"
)

// DecodeDataURL returns the media type and text payload of an inline data
// URL. Malformed input yields empty strings.
func DecodeDataURL(raw string) (mediaType, content string) {
	if !strings.HasPrefix(raw, "data:") {
		return "", ""
	}
	header, payload, ok := strings.Cut(raw[len("data:"):], ",")
	if !ok {
		return "", ""
	}

	if base, isBase64 := strings.CutSuffix(header, ";base64"); isBase64 {
		decoded, err := decodeBase64(payload)
		if err != nil {
			return "", ""
		}
		return base, strings.ToValidUTF8(string(decoded), string(utf8.RuneError))
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", ""
	}
	return header, decoded
}

func decodeBase64(payload string) ([]byte, error) {
	payload = strings.TrimSpace(payload)
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err == nil {
		return decoded, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
}

// CollectAttachments decodes every named attachment. Nameless or URL-less
// entries are skipped.
func CollectAttachments(attachments []entity.Attachment) map[string]string {
	files := make(map[string]string, len(attachments))
	for _, a := range attachments {
		if a.Name == "" || a.URL == "" {
			continue
		}
		_, text := DecodeDataURL(a.URL)
		files[a.Name] = text
	}
	return files
}
