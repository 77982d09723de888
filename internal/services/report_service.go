package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/gigbridge/marketplace-service/internal/models"
	"github.com/gigbridge/marketplace-service/internal/repositories"
)

type reportService struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewReportService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) ReportService {
	return &reportService{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

// ExportProposals renders every proposal on a job into an xlsx workbook.
// Only the job owner can export.
func (s *reportService) ExportProposals(ctx context.Context, jobID uint, userID uint) ([]byte, string, error) {
	job, err := s.repo.Job().GetByID(ctx, s.db, jobID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrJobNotFound
		}
		return nil, "", fmt.Errorf("failed to get job: %w", err)
	}

	if job.BusinessID != userID {
		return nil, "", NewPermissionError(userID, jobID, "report", "export", "not the job owner")
	}

	proposals, _, err := s.repo.Proposal().GetByJob(ctx, s.db, jobID, repositories.ProposalFilters{})
	if err != nil {
		return nil, "", fmt.Errorf("failed to load proposals: %w", err)
	}
	if len(proposals) == 0 {
		return nil, "", ErrReportNothingToExport
	}

	data, err := s.buildWorkbook(job, proposals)
	if err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("proposals_job_%d_%s.xlsx", jobID, time.Now().Format("20060102"))

	s.logger.Info("Proposal report exported", "job_id", jobID, "rows", len(proposals))

	return data, filename, nil
}

func (s *reportService) buildWorkbook(job *models.Job, proposals []*models.Proposal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Proposals"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Freelancer", "Status", "Proposed Rate", "Cover Letter", "Submitted At"}
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		_ = f.SetRowStyle(sheet, 1, 1, headerStyle)
	}

	for rowIdx, proposal := range proposals {
		row := rowIdx + 2

		freelancerName := fmt.Sprintf("#%d", proposal.FreelancerID)
		if proposal.Freelancer.ID != 0 {
			freelancerName = proposal.Freelancer.DisplayName
		}

		values := []interface{}{
			proposal.ID,
			freelancerName,
			string(proposal.Status),
			proposal.ProposedRate,
			proposal.CoverLetter,
			proposal.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	_ = f.SetColWidth(sheet, "B", "B", 24)
	_ = f.SetColWidth(sheet, "E", "E", 60)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	return buf.Bytes(), nil
}
