package intake

import (
	"context"
	"fmt"
	"io"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
)

// MaxPagesSync is the maximum number of pages Vision processes synchronously
const MaxPagesSync = 5

// TextSource extracts plain text from a PDF.
type TextSource interface {
	ReadText(ctx context.Context, pdf io.Reader) (string, error)
}

// VisionOCR reads PDF text with Google Cloud Vision document text detection.
type VisionOCR struct {
	client *vision.ImageAnnotatorClient
}

func NewVisionOCR(ctx context.Context, keyFile string) (*VisionOCR, error) {
	const op = "NewVisionOCR"

	client, err := vision.NewImageAnnotatorClient(ctx, clientOptions(keyFile)...)
	if err != nil {
		return nil, wrapError(op, ErrMissingCredentials, err.Error())
	}
	return &VisionOCR{client: client}, nil
}

// Close closes the underlying Vision client.
func (v *VisionOCR) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// ReadText returns the text of all pages in reading order.
func (v *VisionOCR) ReadText(ctx context.Context, pdf io.Reader) (string, error) {
	const op = "ReadText"

	data, err := readPDF(op, pdf)
	if err != nil {
		return "", err
	}

	resp, err := v.client.BatchAnnotateFiles(ctx, &visionpb.BatchAnnotateFilesRequest{
		Requests: []*visionpb.AnnotateFileRequest{{
			InputConfig: &visionpb.InputConfig{
				Content:  data,
				MimeType: "application/pdf",
			},
			Features: []*visionpb.Feature{{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION}},
		}},
	})
	if err != nil {
		return "", classifyAPIError(op, err)
	}
	if len(resp.Responses) == 0 {
		return "", wrapError(op, ErrProcessingFailed, "no response from Vision API")
	}

	text, err := pagesText(resp.Responses[0])
	if err != nil {
		return "", wrapError(op, err, "failed to process Vision API response")
	}
	return text, nil
}

// pagesText joins the full text annotation of every page with a page separator.
func pagesText(fileResp *visionpb.AnnotateFileResponse) (string, error) {
	if fileResp.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProcessingFailed, fileResp.Error.Message)
	}
	if len(fileResp.Responses) > MaxPagesSync {
		return "", fmt.Errorf("%w: %d pages", ErrTooManyPages, len(fileResp.Responses))
	}

	var b strings.Builder
	for i, page := range fileResp.Responses {
		if page.Error != nil {
			return "", fmt.Errorf("error processing page %d: %s", i+1, page.Error.Message)
		}
		if page.FullTextAnnotation == nil {
			continue
		}
		if i > 0 {
			fmt.Fprintf(&b, "\n\n--- Page %d ---\n\n", i+1)
		}
		b.WriteString(page.FullTextAnnotation.Text)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrEmptyDocument
	}
	return b.String(), nil
}
