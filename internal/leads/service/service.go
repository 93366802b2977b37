package service

import (
	"bytes"
	"context"
	"errors"

	"leadscore_backend/internal/adapters/storage"
	"leadscore_backend/internal/events"
	"leadscore_backend/internal/leads/importer"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/transport"
	"leadscore_backend/platform/apperr"
	"leadscore_backend/platform/logger"
)

const (
	MsgUploaded   = "CSV uploaded successfully"
	MsgFetched    = "Leads fetched successfully"
	MsgReadError  = "Error reading CSV file"
	MsgEmptyFile  = "CSV file is empty"
	uploadsFolder = "uploads"
)

// Import sources recorded on LeadsImported.
const (
	SourceUpload = "upload"
	SourceCLI    = "cli"
)

// Upload is a raw sheet to import.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
	Source      string
}

// Service provides business logic for leads.
type Service struct {
	repo    repository.Repository
	storage storage.StorageService
	bucket  string
	bus     events.Bus
	log     *logger.Logger
}

// New creates a new leads service. storage and bus may be nil.
func New(repo repository.Repository, store storage.StorageService, bucket string, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, storage: store, bucket: bucket, bus: bus, log: log}
}

// ImportCSV parses and stores a CSV upload and archives the original file.
func (s *Service) ImportCSV(ctx context.Context, upload Upload) (transport.UploadResponse, error) {
	result, err := importer.ParseCSV(bytes.NewReader(upload.Data))
	if errors.Is(err, importer.ErrNoHeader) {
		return transport.UploadResponse{}, apperr.BadRequest(MsgEmptyFile)
	}
	if err != nil {
		return transport.UploadResponse{}, apperr.Wrap(apperr.KindBadRequest, MsgReadError, err)
	}

	archiveKey := ""
	if len(result.Records) > 0 {
		archiveKey = s.archive(ctx, upload)
	}
	return s.store(ctx, result, upload.Source, archiveKey)
}

// ImportParsed stores records that were parsed elsewhere, e.g. from a workbook.
func (s *Service) ImportParsed(ctx context.Context, result importer.Result, source string) (transport.UploadResponse, error) {
	return s.store(ctx, result, source, "")
}

// List returns every lead in insertion order.
func (s *Service) List(ctx context.Context) (transport.LeadListResponse, error) {
	leads, err := s.repo.List(ctx)
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	items := make([]transport.LeadResponse, len(leads))
	for i, lead := range leads {
		items[i] = toLeadResponse(lead)
	}
	return transport.LeadListResponse{Message: MsgFetched, Count: len(items), Leads: items}, nil
}

func (s *Service) store(ctx context.Context, result importer.Result, source, archiveKey string) (transport.UploadResponse, error) {
	if len(result.Records) == 0 {
		return transport.UploadResponse{}, apperr.BadRequest(MsgEmptyFile)
	}

	leads := make([]repository.Lead, len(result.Records))
	for i, rec := range result.Records {
		leads[i] = repository.Lead{
			Name:        rec.Name,
			Role:        rec.Role,
			Company:     rec.Company,
			Industry:    rec.Industry,
			Location:    rec.Location,
			LinkedInBio: rec.LinkedInBio,
		}
	}

	stored, err := s.repo.InsertMany(ctx, leads)
	if err != nil {
		return transport.UploadResponse{}, err
	}

	s.log.WithContext(ctx).Info("leads_imported",
		"count", len(stored),
		"skipped", result.Skipped,
		"source", source,
	)
	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadsImported{
			BaseEvent:  events.NewBaseEvent(),
			Count:      len(stored),
			Skipped:    result.Skipped,
			Source:     source,
			ArchiveKey: archiveKey,
		})
	}

	return transport.UploadResponse{Message: MsgUploaded, Count: len(stored), Skipped: result.Skipped}, nil
}

// archive stores the original upload. Failures are logged and do not fail the import.
func (s *Service) archive(ctx context.Context, upload Upload) string {
	if s.storage == nil || s.bucket == "" {
		return ""
	}
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "text/csv"
	}
	key, err := s.storage.UploadFile(ctx, s.bucket, uploadsFolder, upload.FileName, contentType, bytes.NewReader(upload.Data), int64(len(upload.Data)))
	if err != nil {
		s.log.WithContext(ctx).Warn("lead_upload_archive_failed", "file", upload.FileName, "error", err.Error())
		return ""
	}
	return key
}

func toLeadResponse(l repository.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:          l.ID,
		Name:        l.Name,
		Role:        l.Role,
		Company:     l.Company,
		Industry:    l.Industry,
		Location:    l.Location,
		LinkedInBio: l.LinkedInBio,
		CreatedAt:   l.CreatedAt,
	}
}
