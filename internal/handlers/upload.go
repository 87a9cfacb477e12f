package handlers

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"compliance-backend/internal/compliance"
	"compliance-backend/internal/ctxkeys"
	"compliance-backend/internal/storage"
)

// Allowed file types and size limit for uploads.
const maxUploadSize = 10 << 20 // 10 MB

var allowedTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
}

// allowedUploadType accepts pdf and image uploads by sniffed type alone.
// Word documents sniff as zip archives, so zip content is accepted only
// when the file name carries the .docx extension — a bare .zip is not a
// compliance document.
func allowedUploadType(contentType, filename string) bool {
	if allowedTypes[contentType] {
		return true
	}
	if contentType == "application/zip" {
		return strings.EqualFold(filepath.Ext(filename), ".docx")
	}
	return false
}

// UploadHandler handles compliance document uploads.
// It depends on the storage.Store interface, not a specific implementation.
type UploadHandler struct {
	store storage.Store
}

// NewUploadHandler creates an UploadHandler with the given storage backend.
func NewUploadHandler(store storage.Store) *UploadHandler {
	return &UploadHandler{store: store}
}

// Upload handles multipart document uploads.
// Form fields: "file" (required), "docType" (required), and either
// projectId+month+year for monthly documents or year alone for annual ones.
// Returns file metadata (url, name, size, type) as JSON.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	// Enforce size limit before reading body
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		JSONError(w, http.StatusBadRequest, "File too large. Maximum size is 10MB.")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		JSONError(w, http.StatusBadRequest, "Missing 'file' field in form data.")
		return
	}
	defer file.Close()

	docType := r.FormValue("docType")
	if !compliance.IsMonthlyDocType(docType) && !compliance.IsAnnualDocType(docType) {
		JSONError(w, http.StatusUnprocessableEntity, "Unknown document type.")
		return
	}

	// Validate file type by reading the first 512 bytes (MIME sniffing)
	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		JSONError(w, http.StatusBadRequest, "Could not read file.")
		return
	}
	contentType := http.DetectContentType(buffer[:n])

	if !allowedUploadType(contentType, header.Filename) {
		JSONError(w, http.StatusBadRequest, fmt.Sprintf(
			"File type '%s' not allowed. Accepted: PDF, JPG, PNG, DOCX.", contentType,
		))
		return
	}

	// Reset file reader to beginning after MIME sniffing
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		JSONError(w, http.StatusInternalServerError, "Failed to process file.")
		return
	}

	storagePath, err := h.buildPath(r, docType, header.Filename)
	if err != nil {
		JSONError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	info, err := h.store.Save(r.Context(), storagePath, file, contentType)
	if err != nil {
		log.Printf("Upload failed: %v", err)
		JSONError(w, http.StatusInternalServerError, "Failed to save file.")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"data":        info,
		"storagePath": storagePath,
		"docType":     docType,
	})
}

// buildPath places monthly documents under their project/subcontractor/period
// and annual documents under subcontractor/year. A uuid suffix on the name
// prevents collisions when a document is re-uploaded.
func (h *UploadHandler) buildPath(r *http.Request, docType, filename string) (string, error) {
	subcontractorID, _ := r.Context().Value(ctxkeys.UserID).(string)
	safeName := uuid.NewString()[:8] + "_" + sanitizeFilename(filename)

	year, err := strconv.Atoi(r.FormValue("year"))
	if err != nil {
		return "", fmt.Errorf("invalid year")
	}

	if compliance.IsAnnualDocType(docType) {
		return fmt.Sprintf("annual/%s/%d/%s", subcontractorID, year, safeName), nil
	}

	projectID := r.FormValue("projectId")
	if projectID == "" {
		return "", fmt.Errorf("projectId is required for monthly documents")
	}
	if !checkProjectAccess(r.Context(), projectID) {
		return "", fmt.Errorf("no access to this project")
	}
	month, err := strconv.Atoi(r.FormValue("month"))
	if err != nil {
		return "", fmt.Errorf("invalid month")
	}
	if err := (compliance.Period{Month: month, Year: year}).Validate(); err != nil {
		return "", err
	}

	return fmt.Sprintf("submissions/%s/%s/%d_%02d/%s",
		projectID, subcontractorID, year, month, safeName), nil
}

// ServeFile serves uploaded files.
// For S3 storage, redirects to the public URL.
// For local storage, serves from disk.
func (h *UploadHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	// Extract the full file path from the URL (everything after /api/files/)
	filePath := strings.TrimPrefix(r.URL.Path, "/api/files/")
	if filePath == "" {
		JSONError(w, http.StatusBadRequest, "File path required.")
		return
	}

	if url := h.store.URL(filePath); strings.HasPrefix(url, "https://") {
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
		return
	}

	http.ServeFile(w, r, filepath.Join("uploads", filepath.Clean(filePath)))
}

// sanitizeFilename removes path separators and unsafe characters.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, " ", "_")
	return name
}
