package http

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/couchcryptid/critical-events-service/internal/filestore"
)

// CreateFolderRequest is the body of POST /api/file-upload/createFolder.
type CreateFolderRequest struct {
	FolderName string `json:"folder_name" validate:"required"`
}

func (s *Server) handleFindCriticalEvents(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	req, err := domain.ParseFindCriticalEventsRequest(bytes.NewReader(body))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.respondWithDetection(w, "http", req.Days())
}

func (s *Server) handleFindCriticalEventsInFile(w http.ResponseWriter, r *http.Request) {
	processed, err := s.files.DownloadAndProcess(r.Context(), r.PathValue("file_name"), r.URL.Query().Get("file_type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.respondWithDetection(w, "file", domain.FlattenDayRecords(processed.DaysList))
}

func (s *Server) respondWithDetection(w http.ResponseWriter, source string, days domain.DaysList) {
	detection := domain.FindCriticalEvents(days)
	s.metrics.ObserveDetection(source, len(days), days.ObservationCount(), len(detection.CriticalEvents))
	writeJSON(w, http.StatusOK, domain.NewCriticalEventsResponse(detection))
}

func (s *Server) handleUploadExcel(w http.ResponseWriter, r *http.Request) {
	f, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.files.UploadExcel(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUploadJSON(w http.ResponseWriter, r *http.Request) {
	f, err := s.readUpload(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp, err := s.files.UploadJSON(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := queryInt(q, "page", "Page")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(q, "limit", "Limit")
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.files.ListFiles(r.Context(), filestore.ListQuery{
		Page:   page,
		Limit:  limit,
		Search: q.Get("search"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.files.DeleteFile(r.Context(), r.PathValue("file_name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDeleteAllFiles(w http.ResponseWriter, r *http.Request) {
	resp, err := s.files.DeleteAllFiles(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req CreateFolderRequest
	if err := domain.DecodeStrict(bytes.NewReader(body), &req, "folder_name must be a string"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := domain.ValidateStruct(req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.files.CreateFolder(r.Context(), req.FolderName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDownloadAndProcessFile(w http.ResponseWriter, r *http.Request) {
	resp, err := s.files.DownloadAndProcess(r.Context(), r.PathValue("file_name"), r.URL.Query().Get("file_type"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	return io.ReadAll(r.Body)
}

// readUpload returns nil without error when the form carries no file part,
// leaving the "No file provided" decision to the file service.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*filestore.UploadedFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, tooLarge
		}
		return nil, domain.NewValidationError("Request must be a multipart form with a file field")
	}
	defer file.Close() //nolint:errcheck // read-only multipart part

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	return &filestore.UploadedFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// queryInt parses an optional positive integer query parameter. Zero means
// the parameter was absent.
func queryInt(q url.Values, key, label string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.NewValidationError(label + " must be an integer")
	}
	if n < 1 {
		return 0, domain.NewValidationError(label + " must be at least 1")
	}
	return n, nil
}
