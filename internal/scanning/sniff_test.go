package scanning

import (
	"encoding/base64"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var (
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	pngHeader  = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	webpHeader = []byte("RIFF\x24\x00\x00\x00WEBPVP8 ")
)

var _ = Describe("DetectMIME", func() {
	It("detects JPEG", func() {
		Expect(DetectMIME(jpegHeader)).To(Equal("image/jpeg"))
	})

	It("detects PNG", func() {
		Expect(DetectMIME(pngHeader)).To(Equal("image/png"))
	})

	It("detects WEBP", func() {
		Expect(DetectMIME(webpHeader)).To(Equal("image/webp"))
	})

	It("defaults to JPEG for unknown signatures", func() {
		Expect(DetectMIME([]byte("GIF89a"))).To(Equal("image/jpeg"))
	})

	It("defaults to JPEG for empty input", func() {
		Expect(DetectMIME(nil)).To(Equal("image/jpeg"))
	})

	It("defaults to JPEG for a RIFF container that is not WEBP", func() {
		Expect(DetectMIME([]byte("RIFF\x24\x00\x00\x00WAVEfmt "))).To(Equal("image/jpeg"))
	})
})

var _ = Describe("DetectMIMEBase64", func() {
	It("classifies an encoded PNG without decoding the whole payload", func() {
		b64 := base64.StdEncoding.EncodeToString(append(pngHeader, make([]byte, 4096)...))
		Expect(DetectMIMEBase64(b64)).To(Equal("image/png"))
	})

	It("classifies an encoded WEBP", func() {
		b64 := base64.StdEncoding.EncodeToString(webpHeader)
		Expect(DetectMIMEBase64(b64)).To(Equal("image/webp"))
	})

	It("defaults to JPEG when the input is not decodable", func() {
		Expect(DetectMIMEBase64("!!!not-base64!!!")).To(Equal("image/jpeg"))
	})

	It("defaults to JPEG for an empty string", func() {
		Expect(DetectMIMEBase64("")).To(Equal("image/jpeg"))
	})
})
