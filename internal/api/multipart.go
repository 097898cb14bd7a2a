package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"

	"fieldreport/internal/report"
)

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// encodeMultipart writes the payload into an in-memory form. Photos are read
// up front so a missing file fails the submission before any request is sent.
func encodeMultipart(p report.Payload) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	for _, f := range p.Fields() {
		if err := w.WriteField(f.Name, f.Value); err != nil {
			return nil, "", fmt.Errorf("failed to write field %s: %w", f.Name, err)
		}
	}

	for _, img := range p.Images {
		if err := writeImagePart(w, img); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func writeImagePart(w *multipart.Writer, img report.ImagePart) error {
	f, err := os.Open(report.LocalPath(img.Ref))
	if err != nil {
		return fmt.Errorf("failed to open photo %s: %w", img.Ref, err)
	}
	defer f.Close()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		quoteEscaper.Replace(report.ImageFieldName), quoteEscaper.Replace(img.FileName)))
	h.Set("Content-Type", img.ContentType)

	part, err := w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("failed to read photo %s: %w", img.Ref, err)
	}
	return nil
}
