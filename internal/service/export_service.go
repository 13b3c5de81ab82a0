package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/participant"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
	"github.com/youthmultiply/welcoming-college/pkg/export"
)

const (
	DefaultExportName = "Daftar Peserta Welcoming College 2025"
	ExportTitle       = "Daftar Peserta Youth Welcoming College 2025"
	ExportSheet       = "Daftar Peserta"
	ExportFooter      = "Presented by Youth Multiply"

	ExportModeSync  = "sync"
	ExportModeAsync = "async"
	ExportModeCLI   = "cli"

	maxFilenameLength = 120
)

type participantSource interface {
	ListAll(ctx context.Context, token string) ([]participant.Record, error)
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// Artifact is a rendered export ready to be saved or streamed.
type Artifact struct {
	Filename    string
	ContentType string
	Format      models.ExportFormat
	Data        []byte
	Rows        int
}

// ExportService runs the participant export pipeline: fetch every page,
// sort by creation time, map to fixed columns, then encode.
type ExportService struct {
	source    participantSource
	renderers map[models.ExportFormat]datasetRenderer
	metrics   *MetricsService
	logger    *zap.Logger
}

// NewExportService constructs the pipeline with the xlsx, pdf and csv encoders.
func NewExportService(source participantSource, metrics *MetricsService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		source: source,
		renderers: map[models.ExportFormat]datasetRenderer{
			models.ExportFormatXLSX: export.NewXLSXExporter(),
			models.ExportFormatPDF:  export.NewPDFExporter(),
			models.ExportFormatCSV:  export.NewCSVExporter(),
		},
		metrics: metrics,
		logger:  logger,
	}
}

// Build produces the export file for format. A failing page or encoder aborts
// the whole export; nothing partial is returned.
func (s *ExportService) Build(ctx context.Context, token string, format models.ExportFormat, filename, mode string) (*Artifact, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	records, err := s.source.ListAll(ctx, token)
	if err != nil {
		s.metrics.RecordExport(format, mode, 0, err)
		return nil, err
	}
	participant.SortByCreatedAt(records)
	rows := participant.MapRows(records)

	data, err := renderer.Render(ParticipantDataset(rows))
	if err != nil {
		s.metrics.RecordExport(format, mode, 0, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode export")
	}
	s.metrics.RecordExport(format, mode, len(rows), nil)

	artifact := &Artifact{
		Filename:    ExportFilename(format, filename),
		ContentType: format.ContentType(),
		Format:      format,
		Data:        data,
		Rows:        len(rows),
	}
	s.logger.Info("participant export built",
		zap.String("format", string(format)),
		zap.String("mode", mode),
		zap.Int("rows", artifact.Rows),
		zap.Int("bytes", len(data)),
	)
	return artifact, nil
}

// ParticipantDataset wraps mapped rows with the export title, sheet and footer.
func ParticipantDataset(rows []participant.Row) export.Dataset {
	dataRows := make([]map[string]string, len(rows))
	for i, row := range rows {
		dataRows[i] = row
	}
	return export.Dataset{
		Title:   ExportTitle,
		Sheet:   ExportSheet,
		Footer:  ExportFooter,
		Headers: participant.Columns,
		Rows:    dataRows,
	}
}

// ExportFilename cleans a requested download name and forces the format's
// extension. An empty request yields the default name.
func ExportFilename(format models.ExportFormat, requested string) string {
	ext := "." + string(format)
	name := strings.TrimSpace(requested)
	name = strings.NewReplacer("/", "-", "\\", "-", ":", "-", "\"", "", "\x00", "").Replace(name)
	if candidate := models.ExportFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")); candidate.Valid() {
		name = name[:len(name)-len(filepath.Ext(name))]
	}
	name = strings.Trim(name, ". ")
	if name == "" {
		name = DefaultExportName
	}
	if runes := []rune(name); len(runes) > maxFilenameLength {
		name = string(runes[:maxFilenameLength])
	}
	return fmt.Sprintf("%s%s", name, ext)
}
