package service

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/youthmultiply/welcoming-college/internal/models"
	"github.com/youthmultiply/welcoming-college/internal/participant"
	appErrors "github.com/youthmultiply/welcoming-college/pkg/errors"
)

type stubSource struct {
	records []participant.Record
	err     error
	tokens  []string
}

func (s *stubSource) ListAll(_ context.Context, token string) ([]participant.Record, error) {
	s.tokens = append(s.tokens, token)
	if s.err != nil {
		return nil, s.err
	}
	out := make([]participant.Record, len(s.records))
	copy(out, s.records)
	return out, nil
}

func sampleRecords() []participant.Record {
	return []participant.Record{
		{"name": "Citra", "created_at": "2025-03-03T10:00:00Z", "place": "Medan", "birth_date": "2002-12-01", "kampus": "USU", "angkatan": json.Number("2021"), "jurusan": "Hukum", "phone": "0813"},
		{"Nama": "Andi", "created_at": "2025-03-01T10:00:00Z", "Tempat Lahir": "Bandung", "Tanggal Lahir": "2001-02-03", "Kampus": "ITB", "Angkatan": "2020", "Jurusan": "Informatika", "No HP": "0812"},
		{"name": "Budi", "created_at": "2025-03-02T10:00:00Z", "birth_date": "2000-07-15", "campus": "UI", "batch": 2019, "major": "Teknik", "no_hp": "0811"},
	}
}

func TestExportServiceBuildXLSX(t *testing.T) {
	source := &stubSource{records: sampleRecords()}
	svc := NewExportService(source, NewMetricsService(), nil)

	artifact, err := svc.Build(context.Background(), "tok", models.ExportFormatXLSX, "", ExportModeSync)
	require.NoError(t, err)
	assert.Equal(t, "Daftar Peserta Welcoming College 2025.xlsx", artifact.Filename)
	assert.Equal(t, 3, artifact.Rows)
	assert.Equal(t, []string{"tok"}, source.tokens)

	book, err := excelize.OpenReader(bytes.NewReader(artifact.Data))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, participant.Columns, rows[0])
	assert.Equal(t, []string{"1", "Andi", "Bandung, 3 Februari 2001", "ITB", "2020", "Informatika", "0812"}, rows[1])
	assert.Equal(t, []string{"2", "Budi", "15 Juli 2000", "UI", "2019", "Teknik", "0811"}, rows[2])
	assert.Equal(t, "Citra", rows[3][1])
}

func TestExportServiceBuildPDFAndCSV(t *testing.T) {
	svc := NewExportService(&stubSource{records: sampleRecords()}, nil, nil)

	pdf, err := svc.Build(context.Background(), "", models.ExportFormatPDF, "", ExportModeSync)
	require.NoError(t, err)
	assert.Equal(t, "Daftar Peserta Welcoming College 2025.pdf", pdf.Filename)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF")))
	assert.Equal(t, "application/pdf", pdf.ContentType)

	csv, err := svc.Build(context.Background(), "", models.ExportFormatCSV, "rekap", ExportModeSync)
	require.NoError(t, err)
	assert.Equal(t, "rekap.csv", csv.Filename)
	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(csv.Data), "\ufeff")), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "No,Nama,TTL,Kampus,Angkatan,Jurusan,No HP", strings.TrimSpace(lines[0]))
}

func TestExportServiceEmptyCollection(t *testing.T) {
	svc := NewExportService(&stubSource{}, nil, nil)

	artifact, err := svc.Build(context.Background(), "", models.ExportFormatXLSX, "", ExportModeSync)
	require.NoError(t, err)
	assert.Equal(t, 0, artifact.Rows)
	_, err = zip.NewReader(bytes.NewReader(artifact.Data), int64(len(artifact.Data)))
	require.NoError(t, err)
}

func TestExportServiceAbortsOnFetchError(t *testing.T) {
	fetchErr := appErrors.Clone(appErrors.ErrBackendUnavailable, "")
	svc := NewExportService(&stubSource{err: fetchErr}, NewMetricsService(), nil)

	artifact, err := svc.Build(context.Background(), "", models.ExportFormatPDF, "", ExportModeSync)
	assert.Nil(t, artifact)
	assert.True(t, errors.Is(err, appErrors.ErrBackendUnavailable))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	source := &stubSource{}
	svc := NewExportService(source, nil, nil)

	_, err := svc.Build(context.Background(), "", models.ExportFormat("docx"), "", ExportModeSync)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, source.tokens)
}

func TestExportFilename(t *testing.T) {
	cases := []struct {
		format    models.ExportFormat
		requested string
		want      string
	}{
		{models.ExportFormatXLSX, "", "Daftar Peserta Welcoming College 2025.xlsx"},
		{models.ExportFormatPDF, "  ", "Daftar Peserta Welcoming College 2025.pdf"},
		{models.ExportFormatPDF, "rekap.xlsx", "rekap.pdf"},
		{models.ExportFormatCSV, "../../etc/passwd", "-..-etc-passwd.csv"},
		{models.ExportFormatXLSX, "Peserta v2.5", "Peserta v2.5.xlsx"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ExportFilename(tc.format, tc.requested), tc.requested)
	}
}
