package scanning

import (
	"bytes"
	"encoding/base64"
	"io"
	"strings"
)

// sniffLen covers the longest signature we look for (WEBP at offset 8).
const sniffLen = 24

// DetectMIME classifies an image buffer by its magic bytes. Phone
// screenshots are overwhelmingly JPEG, so that is the fallback when no
// signature matches.
func DetectMIME(data []byte) string {
	if bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}) {
		return "image/jpeg"
	}
	if bytes.HasPrefix(data, []byte("\x89PNG\r\n\x1a\n")) {
		return "image/png"
	}
	if len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return "image/webp"
	}
	return "image/jpeg"
}

// DetectMIMEBase64 classifies a base64-encoded image without decoding the
// whole payload. Undecodable input falls back to JPEG.
func DetectMIMEBase64(b64 string) string {
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(base64.NewDecoder(base64.StdEncoding, strings.NewReader(b64)), head)
	return DetectMIME(head[:n])
}
