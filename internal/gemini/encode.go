package gemini

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// maxPDFPages caps how many rendered pages of a PDF are sent to the model.
// Invoices run a handful of pages at most; anything past the cap is noise.
const maxPDFPages = 8

// EncodeFile converts an uploaded invoice into inline request parts. PDFs
// render to one PNG part per page (up to maxPDFPages); images are
// normalized to a single PNG part. Unreadable input surfaces as FileError.
func EncodeFile(data []byte, contentType string) ([]FilePart, error) {
	if len(data) == 0 {
		return nil, &FileError{Message: "empty file"}
	}

	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "application/pdf" {
		return pdfToParts(data)
	}

	pngData, err := imageToPNG(data, mimeType)
	if err != nil {
		return nil, err
	}
	return []FilePart{{MIMEType: "image/png", Data: pngData}}, nil
}

// pdfToParts renders each page of a PDF to a PNG part.
func pdfToParts(pdfData []byte) ([]FilePart, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, &FileError{Message: "opening PDF", Cause: err}
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages == 0 {
		return nil, &FileError{Message: "PDF has no pages"}
	}
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	parts := make([]FilePart, 0, pages)
	for n := 0; n < pages; n++ {
		img, err := doc.Image(n)
		if err != nil {
			return nil, &FileError{Message: fmt.Sprintf("rendering PDF page %d", n+1), Cause: err}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, &FileError{Message: fmt.Sprintf("encoding PDF page %d", n+1), Cause: err}
		}
		parts = append(parts, FilePart{MIMEType: "image/png", Data: buf.Bytes()})
	}
	return parts, nil
}

// imageToPNG converts any supported image format to PNG. PNG input passes
// through untouched.
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	if mimeType == "image/png" && !isHEICFormat(imageData) {
		return imageData, nil
	}

	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not covered by the standard image
	// decoders.
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, &FileError{Message: "decoding HEIC/HEIF image", Cause: err}
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, &FileError{Message: "unsupported file format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF", Cause: err}
			}
			return nil, &FileError{Message: "decoding image", Cause: err}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, &FileError{Message: "encoding PNG", Cause: err}
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks the data for an ISO-BMFF ftyp box with a HEIC/HEIF
// brand at offset 4.
func isHEICFormat(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

// isHEICMimeType checks whether the declared MIME type indicates HEIC/HEIF.
func isHEICMimeType(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}
