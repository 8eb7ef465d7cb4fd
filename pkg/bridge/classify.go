package bridge

import (
	"regexp"
	"strings"
)

// mediaURLPattern matches payloads that are exactly one image or animation
// URL: http(s) scheme, any path, a known extension, optional query string.
var mediaURLPattern = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|gif|webp)(\?.*)?$`)

// Classify decides whether a broker payload is a direct media reference or
// plain text. Total and pure: invalid UTF-8 is replaced, never an error.
func Classify(payload []byte) Payload {
	text := strings.TrimSpace(strings.ToValidUTF8(string(payload), "�"))

	m := mediaURLPattern.FindStringSubmatch(text)
	if m == nil {
		return TextPayload{Text: text}
	}

	ext := strings.ToLower(m[1])
	kind := MediaImage
	if ext == "gif" {
		kind = MediaAnimation
	}
	return MediaPayload{URL: text, Kind: kind, Ext: ext}
}
