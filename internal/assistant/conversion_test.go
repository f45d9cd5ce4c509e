package assistant

import (
	"bytes"
	"image"
	"image/jpeg"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

var _ = Describe("receiptToPNG", func() {
	It("passes PNG data through", func() {
		data := tinyPNG()
		out, err := receiptToPNG(data, "image/png")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(Equal(data))
	})

	It("converts JPEG to PNG", func() {
		var buf bytes.Buffer
		Expect(jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil)).To(Succeed())

		out, err := receiptToPNG(buf.Bytes(), "IMAGE/JPEG ")
		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.HasPrefix(out, pngSignature)).To(BeTrue())
	})

	It("treats an empty content type as JPEG", func() {
		_, err := receiptToPNG([]byte("garbage"), "")
		Expect(err).To(MatchError(ContainSubstring("decoding image")))
	})
})

var _ = Describe("isHEIC", func() {
	DescribeTable("detects HEIC input",
		func(data []byte, mimeType string, want bool) {
			Expect(isHEIC(data, mimeType)).To(Equal(want))
		},
		Entry("heic brand", []byte("\x00\x00\x00\x18ftypheic\x00\x00"), "application/octet-stream", true),
		Entry("mif1 brand", []byte("\x00\x00\x00\x18ftypmif1\x00\x00"), "", true),
		Entry("heif mime type", []byte("short"), "image/heif", true),
		Entry("jpeg", []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00\x01"), "image/jpeg", false),
		Entry("too short", []byte("ftyp"), "", false),
	)
})

var _ = Describe("normalizeMIME", func() {
	It("drops parameters and case", func() {
		Expect(normalizeMIME(" Image/PNG; charset=binary")).To(Equal("image/png"))
	})
})
