package pipeline

import (
	"errors"
	"strings"

	"github.com/JakeFAU/pdfingest/internal/element"
)

// SuccessKey is the message key carried by every completion notification.
const SuccessKey = "success"

// ProcessRequest names the PDF to ingest.
type ProcessRequest struct {
	BucketName string `json:"bucket_name"`
	PDFKey     string `json:"pdf_key"`
}

// PartitionInput is the raw document handed to a Partitioner.
type PartitionInput struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StoredDocument is the record written to the document store.
type StoredDocument struct {
	Elements []element.Value `json:"elements"`
}

// Notification is the key/value message emitted after a document is stored.
type Notification struct {
	Topic string
	Key   string
	Value string
}

// Result summarizes a completed Process call.
type Result struct {
	DocumentID   string `json:"document_id"`
	ElementCount int    `json:"elements"`
}

// Validate reports missing request fields.
func (r ProcessRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.BucketName) == "" {
		missing = append(missing, "bucket_name")
	}
	if strings.TrimSpace(r.PDFKey) == "" {
		missing = append(missing, "pdf_key")
	}
	if len(missing) > 0 {
		return errors.New("missing required parameter(s): " + strings.Join(missing, ", "))
	}
	return nil
}
