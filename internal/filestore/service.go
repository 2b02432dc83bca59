package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/couchcryptid/critical-events-service/internal/adapter/xlsx"
	"github.com/couchcryptid/critical-events-service/internal/domain"
	"github.com/couchcryptid/critical-events-service/internal/observability"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

// UploadedFile is a file received from a client.
type UploadedFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// MessageResponse is the body returned by mutating operations.
type MessageResponse struct {
	Message string `json:"message"`
}

// ListQuery selects a page of stored files.
type ListQuery struct {
	Page   int    `json:"page" validate:"min=1"`
	Limit  int    `json:"limit" validate:"min=1"`
	Search string `json:"search"`
}

// FileInfo is one entry in a file listing.
type FileInfo struct {
	FileName string `json:"file_name"`
	Size     int64  `json:"size"`
}

// ListFilesResponse is a page of stored files.
type ListFilesResponse struct {
	Message    string     `json:"message"`
	TotalFiles int        `json:"total_files"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	TotalPages int        `json:"total_pages"`
	Files      []FileInfo `json:"files"`
}

// ProcessedFile is a stored file converted to day records.
type ProcessedFile struct {
	Message  string             `json:"message"`
	DaysList []domain.DayRecord `json:"days_list"`
}

// Service implements upload, listing, deletion and processing of day files.
// Every object key is the configured prefix followed by the file name.
type Service struct {
	store   ObjectStore
	prefix  string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewService creates a Service rooted at prefix.
func NewService(store ObjectStore, prefix string, logger *slog.Logger, metrics *observability.Metrics) *Service {
	return &Service{store: store, prefix: prefix, logger: logger, metrics: metrics}
}

// UploadExcel stores an .xlsx or .xls file unchanged.
func (s *Service) UploadExcel(ctx context.Context, f *UploadedFile) (MessageResponse, error) {
	if f == nil {
		return MessageResponse{}, domain.NewValidationError("No file provided")
	}
	if err := validateName(f.Name); err != nil {
		return MessageResponse{}, err
	}
	switch fileExtension(f.Name) {
	case "xlsx", "xls":
	default:
		return MessageResponse{}, domain.NewValidationError("Invalid file type. Only Excel files are allowed.")
	}

	if err := s.put(ctx, f); err != nil {
		return MessageResponse{}, domain.NewError(domain.ErrStorage, "An error occurred while uploading the file", err)
	}
	return MessageResponse{Message: "Excel File uploaded successfully"}, nil
}

// UploadJSON validates a day file against the day-record schema and stores it.
func (s *Service) UploadJSON(ctx context.Context, f *UploadedFile) (MessageResponse, error) {
	if f == nil {
		return MessageResponse{}, domain.NewValidationError("No file provided")
	}
	if err := validateName(f.Name); err != nil {
		return MessageResponse{}, err
	}
	if mediaType, _, err := mime.ParseMediaType(f.ContentType); err != nil || mediaType != "application/json" {
		return MessageResponse{}, domain.NewValidationError("Invalid file type. Only JSON files are allowed.")
	}

	if _, err := domain.ParseDayRecords(f.Data); err != nil {
		return MessageResponse{}, domain.NewValidationError("JSON validation failed: " + err.Error())
	}

	if err := s.put(ctx, f); err != nil {
		return MessageResponse{}, domain.NewError(domain.ErrStorage, "An error occurred while processing the JSON file", err)
	}
	return MessageResponse{Message: "JSON File uploaded successfully"}, nil
}

// ListFiles returns one page of stored files whose names contain the search
// term, ignoring case. Folder markers are excluded.
func (s *Service) ListFiles(ctx context.Context, q ListQuery) (ListFilesResponse, error) {
	if q.Page == 0 {
		q.Page = defaultPage
	}
	if q.Limit == 0 {
		q.Limit = defaultLimit
	}
	if err := domain.ValidateStruct(q); err != nil {
		return ListFilesResponse{}, err
	}

	objects, err := s.list(ctx)
	if err != nil {
		return ListFilesResponse{}, domain.NewError(domain.ErrStorage, "Failed to list files", err)
	}

	search := strings.ToLower(q.Search)
	all := make([]FileInfo, 0, len(objects))
	for _, o := range objects {
		if strings.HasSuffix(o.Key, "/") {
			continue
		}
		name := strings.TrimPrefix(o.Key, s.prefix)
		if search != "" && !strings.Contains(strings.ToLower(name), search) {
			continue
		}
		all = append(all, FileInfo{FileName: name, Size: o.Size})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].FileName < all[j].FileName })

	resp := ListFilesResponse{
		Message:    "Files listed successfully",
		TotalFiles: len(all),
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages(len(all), q.Limit),
		Files:      paginate(all, q.Page, q.Limit),
	}
	if len(objects) == 0 {
		resp.Message = "No files found"
	}
	return resp, nil
}

// DeleteFile removes one stored file.
func (s *Service) DeleteFile(ctx context.Context, name string) (MessageResponse, error) {
	if err := validateName(name); err != nil {
		return MessageResponse{}, err
	}

	start := time.Now()
	err := s.store.Delete(ctx, s.prefix+name)
	s.observe("delete", start, err)
	if err != nil {
		s.logger.Error("delete file failed", "file_name", name, "error", err)
		return MessageResponse{}, domain.NewError(domain.ErrStorage, fmt.Sprintf("Failed to delete file %s", name), err)
	}
	return MessageResponse{Message: fmt.Sprintf("File %s deleted successfully", name)}, nil
}

// DeleteAllFiles removes every object under the prefix, folder markers included.
func (s *Service) DeleteAllFiles(ctx context.Context) (MessageResponse, error) {
	objects, err := s.list(ctx)
	if err != nil {
		return MessageResponse{}, domain.NewError(domain.ErrStorage, "Failed to delete all files", err)
	}

	if len(objects) > 0 {
		keys := make([]string, len(objects))
		for i, o := range objects {
			keys[i] = o.Key
		}

		start := time.Now()
		err = s.store.DeleteMany(ctx, keys)
		s.observe("delete_many", start, err)
		if err != nil {
			s.logger.Error("delete all files failed", "count", len(keys), "error", err)
			return MessageResponse{}, domain.NewError(domain.ErrStorage, "Failed to delete all files", err)
		}
		s.logger.Info("deleted all files", "count", len(keys))
	}
	return MessageResponse{Message: "All files deleted successfully"}, nil
}

// CreateFolder writes an empty marker object named folder + "/".
func (s *Service) CreateFolder(ctx context.Context, folder string) (MessageResponse, error) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return MessageResponse{}, domain.NewValidationError("Folder name must not be empty")
	}
	if hasParentSegment(folder) {
		return MessageResponse{}, domain.NewValidationError("Folder name must not contain '..'")
	}
	if !strings.HasSuffix(folder, "/") {
		folder += "/"
	}

	start := time.Now()
	err := s.store.Put(ctx, s.prefix+folder, nil, "")
	s.observe("put", start, err)
	if err != nil {
		s.logger.Error("create folder failed", "folder_name", folder, "error", err)
		return MessageResponse{}, domain.NewError(domain.ErrStorage, fmt.Sprintf("Failed to create folder %q", folder), err)
	}
	return MessageResponse{Message: fmt.Sprintf("Folder %q created successfully", folder)}, nil
}

// DownloadAndProcess fetches a stored file and converts it to day records.
// fileType is "json", "xlsx" or "xls".
func (s *Service) DownloadAndProcess(ctx context.Context, name, fileType string) (ProcessedFile, error) {
	if err := validateName(name); err != nil {
		return ProcessedFile{}, err
	}
	fileType = strings.ToLower(strings.TrimSpace(fileType))
	switch fileType {
	case "json", "xlsx", "xls":
	default:
		return ProcessedFile{}, domain.NewError(domain.ErrUnsupportedFormat, "Unsupported file type", nil)
	}

	start := time.Now()
	data, err := s.store.Get(ctx, s.prefix+name)
	s.observe("get", start, err)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ProcessedFile{}, domain.NewError(domain.ErrNotFound, fmt.Sprintf("File %s not found", name), err)
		}
		s.logger.Error("download file failed", "file_name", name, "error", err)
		return ProcessedFile{}, domain.NewError(domain.ErrStorage, "An error occurred while processing the file", err)
	}
	if len(data) == 0 {
		return ProcessedFile{}, domain.NewError(domain.ErrEmptyFile, "The file is empty or could not be read", nil)
	}

	var records []domain.DayRecord
	if fileType == "json" {
		records, err = domain.ParseDayRecords(data)
	} else {
		records, err = processSpreadsheet(data)
	}
	if err != nil {
		return ProcessedFile{}, err
	}

	s.logger.Debug("processed file", "file_name", name, "file_type", fileType, "days", len(records))
	return ProcessedFile{Message: "File processed successfully", DaysList: records}, nil
}

func processSpreadsheet(data []byte) ([]domain.DayRecord, error) {
	rows, err := xlsx.ReadRows(data)
	if err != nil {
		return nil, err
	}
	return domain.GroupRows(rows)
}

func (s *Service) put(ctx context.Context, f *UploadedFile) error {
	start := time.Now()
	err := s.store.Put(ctx, s.prefix+f.Name, f.Data, f.ContentType)
	s.observe("put", start, err)
	if err != nil {
		s.logger.Error("upload file failed", "file_name", f.Name, "error", err)
		return err
	}
	s.logger.Info("file uploaded", "file_name", f.Name, "size", len(f.Data))
	return nil
}

func (s *Service) list(ctx context.Context) ([]Object, error) {
	start := time.Now()
	objects, err := s.store.List(ctx, s.prefix)
	s.observe("list", start, err)
	if err != nil {
		s.logger.Error("list files failed", "prefix", s.prefix, "error", err)
	}
	return objects, err
}

func (s *Service) observe(op string, start time.Time, err error) {
	outcome := "success"
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		outcome = "error"
	}
	s.metrics.StorageOperations.WithLabelValues(op, outcome).Inc()
	s.metrics.StorageDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func totalPages(n, limit int) int {
	pages := n / limit
	if n%limit != 0 {
		pages++
	}
	return pages
}

// paginate never multiplies past the number of pages, so page and limit may
// be any positive int.
func paginate(files []FileInfo, page, limit int) []FileInfo {
	if page-1 >= totalPages(len(files), limit) {
		return []FileInfo{}
	}
	start := (page - 1) * limit
	end := len(files)
	if end-start > limit {
		end = start + limit
	}
	return files[start:end]
}

func fileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return domain.NewValidationError("File name must not be empty")
	}
	if hasParentSegment(name) || strings.HasPrefix(name, "/") {
		return domain.NewValidationError("File name must not contain '..' or start with '/'")
	}
	return nil
}

func hasParentSegment(name string) bool {
	return slices.Contains(strings.Split(name, "/"), "..")
}
