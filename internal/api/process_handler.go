package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/JakeFAU/pdfingest/internal/middleware"
	"github.com/JakeFAU/pdfingest/internal/pipeline"
)

// SuccessMessage is returned, and logged, once a PDF is stored and announced.
const SuccessMessage = "PDF processed and stored successfully."

const maxBodyBytes = 1 << 16

type processResponse struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	DocumentID string `json:"document_id"`
	Elements   int    `json:"elements"`
}

func (s *Server) processPDF(w http.ResponseWriter, r *http.Request) {
	req, err := decodeProcessRequest(r)
	if err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		s.writeDetail(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	logger := s.logger.With(
		zap.String("request_id", middleware.RequestIDFrom(r.Context())),
		zap.String("bucket", req.BucketName),
		zap.String("pdf_key", req.PDFKey),
	)

	// A started ingestion runs to completion even if the client disconnects.
	res, err := s.processor.Process(context.WithoutCancel(r.Context()), req)
	if err != nil {
		logger.Error("API Error", zap.String("kind", string(pipeline.KindOf(err))), zap.Error(err))
		s.writeDetail(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, processResponse{
		Status:     "success",
		Message:    SuccessMessage,
		DocumentID: res.DocumentID,
		Elements:   res.ElementCount,
	})
}

// decodeProcessRequest reads bucket_name and pdf_key from the query string,
// filling gaps from a JSON body when one is sent.
func decodeProcessRequest(r *http.Request) (pipeline.ProcessRequest, error) {
	q := r.URL.Query()
	req := pipeline.ProcessRequest{
		BucketName: q.Get("bucket_name"),
		PDFKey:     q.Get("pdf_key"),
	}
	if req.BucketName != "" && req.PDFKey != "" {
		return req, nil
	}
	if r.Body == nil || r.ContentLength == 0 {
		return req, nil
	}
	if ct := r.Header.Get("Content-Type"); ct != "" {
		if mediaType, _, err := mime.ParseMediaType(ct); err != nil || mediaType != "application/json" {
			return req, nil
		}
	}

	var body pipeline.ProcessRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		if errors.Is(err, io.EOF) {
			return req, nil
		}
		return req, errors.New("invalid JSON body")
	}
	if req.BucketName == "" {
		req.BucketName = body.BucketName
	}
	if req.PDFKey == "" {
		req.PDFKey = body.PDFKey
	}
	return req, nil
}
