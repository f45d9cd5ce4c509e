package inventory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// maxUploadSize bounds receipt and item photo uploads
	maxUploadSize = int64(50 << 20)
	// maxReportSize bounds raw report text posted for parsing
	maxReportSize = int64(1 << 20)
)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps a service error to a status code
func writeServiceError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found")
	case IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNoReporter), errors.Is(err, ErrNoScanner):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("Error "+action, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// contentTypeFor guesses a content type from the file extension
func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// upload is a file read from a multipart form
type upload struct {
	filename    string
	contentType string
	data        []byte
}

// readUpload reads the "file" field of a multipart form. On failure it
// writes the error response and returns false.
func readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "File is too large. Maximum size is 50MB.")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "Error parsing form")
		return nil, false
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeError(w, http.StatusInternalServerError, "Error reading file. Please try again.")
		return nil, false
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeFor(header.Filename)
	}
	return &upload{
		filename:    header.Filename,
		contentType: strings.ToLower(strings.TrimSpace(contentType)),
		data:        data,
	}, true
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleStatic serves embedded CSS and JavaScript
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	http.StripPrefix("/static/", http.FileServer(http.FS(staticFS()))).ServeHTTP(w, r)
}

// handleListItems returns all items
func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.service.ListItems()
	if err != nil {
		writeServiceError(w, err, "listing items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleCreateItem creates an item from a JSON body
func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.service.CreateItem(in)
	if err != nil {
		writeServiceError(w, err, "creating item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// handleGetItem returns a single item
func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	item, err := s.service.GetItem(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "getting item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleUpdateItem replaces the fields of an item
func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	var in ItemInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	item, err := s.service.UpdateItem(r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, err, "updating item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDeleteItem deletes an item
func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteItem(r.PathValue("id")); err != nil {
		writeServiceError(w, err, "deleting item")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadItemImage attaches a photo to an item
func (s *Server) handleUploadItemImage(w http.ResponseWriter, r *http.Request) {
	up, ok := readUpload(w, r)
	if !ok {
		return
	}

	item, err := s.service.SaveItemImage(r.PathValue("id"), up.filename, up.data, up.contentType)
	if err != nil {
		writeServiceError(w, err, "saving item image")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleGetItemImage returns the photo of an item
func (s *Server) handleGetItemImage(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetItemImage(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "getting item image")
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleExpiringItems returns items expiring within ?days=N, default 7
func (s *Server) handleExpiringItems(w http.ResponseWriter, r *http.Request) {
	days := 7
	if raw := r.URL.Query().Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be a whole number")
			return
		}
		days = n
	}

	items, err := s.service.ExpiringItems(days)
	if err != nil {
		writeServiceError(w, err, "listing expiring items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// handleRecordSale records a sale against an item
func (s *Server) handleRecordSale(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity float64 `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	sale, err := s.service.RecordSale(r.PathValue("id"), req.Quantity)
	if err != nil {
		writeServiceError(w, err, "recording sale")
		return
	}
	writeJSON(w, http.StatusCreated, sale)
}

// handleScanItems reads item drafts from an uploaded receipt
func (s *Server) handleScanItems(w http.ResponseWriter, r *http.Request) {
	up, ok := readUpload(w, r)
	if !ok {
		return
	}

	drafts, err := s.service.ScanItems(r.Context(), up.filename, up.data, up.contentType)
	if err != nil {
		if errors.Is(err, ErrNoScanner) {
			writeServiceError(w, err, "scanning receipt")
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, drafts)
}

// handleListSales returns all sales
func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.service.ListSales()
	if err != nil {
		writeServiceError(w, err, "listing sales")
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// handleGenerateReport generates and stores a report
func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Theme string `json:"theme"`
		Days  int    `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	rep, err := s.service.GenerateReport(r.Context(), req.Theme, req.Days)
	if err != nil {
		if errors.Is(err, ErrNoReporter) || IsClientError(err) {
			writeServiceError(w, err, "generating report")
			return
		}
		slog.Error("Error generating report", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}

// handleParseReport splits a posted report text into sections
func (s *Server) handleParseReport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReportSize))
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "Report text is too large")
		return
	}
	writeJSON(w, http.StatusOK, s.service.ParseReport(string(body)))
}

// handleListReports returns all reports
func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.service.ListReports()
	if err != nil {
		writeServiceError(w, err, "listing reports")
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// handleGetReport returns a single report
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	rep, err := s.service.GetReport(r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err, "getting report")
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// handleReportPDF returns a report as a PDF download
func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	data, err := s.service.ReportPDF(id)
	if err != nil {
		writeServiceError(w, err, "rendering report")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="report-%s.pdf"`, id))
	w.Write(data)
}
