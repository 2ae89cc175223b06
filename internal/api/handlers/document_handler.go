package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jstepanek/textlens/internal/models"
	"github.com/jstepanek/textlens/internal/services"
)

// multipart parts above this stay on disk while the form is parsed
const multipartMemory = 32 << 20

type DocumentHandler struct {
	docs      *services.DocumentService
	maxUpload int64
	log       *zap.Logger
}

func NewDocumentHandler(docs *services.DocumentService, maxUpload int64, log *zap.Logger) *DocumentHandler {
	return &DocumentHandler{docs: docs, maxUpload: maxUpload, log: log}
}

type uploadResponse struct {
	Content string `json:"content"`
}

// UploadDocument extracts the text of the multipart "file" part and returns
// it. Nothing is stored.
func (h *DocumentHandler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	upload, err := readUpload(w, r, h.maxUpload)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	text, err := h.docs.Extract(r.Context(), upload.Name, upload.MimeHint, upload.Raw)
	if err != nil {
		writeServiceError(w, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{Content: text.Content})
}

func readUpload(w http.ResponseWriter, r *http.Request, maxUpload int64) (models.UploadedDocument, error) {
	if maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return models.UploadedDocument{}, err
		}
		return models.UploadedDocument{}, badRequest("No file uploaded")
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		return models.UploadedDocument{}, badRequest("No file uploaded")
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return models.UploadedDocument{}, err
	}

	return models.UploadedDocument{
		Name:     filepath.Base(header.Filename),
		Raw:      raw,
		MimeHint: header.Header.Get("Content-Type"),
	}, nil
}
