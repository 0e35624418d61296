package intake

import (
	"errors"
	"fmt"
)

// Common intake errors
var (
	// ErrInvalidPDF is returned when the provided data is not a PDF document.
	ErrInvalidPDF = errors.New("invalid or corrupted PDF document")

	// ErrDocumentTooLarge is returned when the PDF exceeds MaxDocumentSizeBytes.
	ErrDocumentTooLarge = errors.New("document exceeds maximum size limit")

	// ErrTooManyPages is returned when OCR would exceed the synchronous page limit.
	ErrTooManyPages = errors.New("document has too many pages for synchronous processing")

	// ErrEmptyDocument is returned when no readable text or fields were found.
	ErrEmptyDocument = errors.New("document contains no readable content")

	// ErrProcessingFailed is returned when a cloud API call fails.
	ErrProcessingFailed = errors.New("document processing failed")

	ErrMissingCredentials = errors.New("missing Google Cloud credentials")
	ErrInvalidCredentials = errors.New("invalid Google Cloud credentials")
	ErrQuotaExceeded      = errors.New("API quota exceeded")
	ErrProcessorNotFound  = errors.New("Document AI processor not found")

	// ErrExtractionFailed is returned when the language model gave no usable answer.
	ErrExtractionFailed = errors.New("field extraction failed")
)

// ProcessingError wraps errors with the operation that failed.
type ProcessingError struct {
	// Op is the operation that failed (e.g., "ReadPurchase", "ReadText").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

func (e *ProcessingError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("intake: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("intake: %s failed: %v", e.Op, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// wrapError wraps an error as a ProcessingError if it isn't already one.
func wrapError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var procErr *ProcessingError
	if errors.As(err, &procErr) {
		return err // Already wrapped
	}

	return &ProcessingError{Op: op, Err: err, Details: details}
}
