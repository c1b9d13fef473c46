package xlsx

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kirillkom/lostfound-matcher/internal/core/domain"
	"github.com/xuri/excelize/v2"
)

const (
	matchesSheet = "Potential matches"
	summarySheet = "Summary"
)

var matchHeader = []any{
	"Lost item", "Lost title", "Found item", "Found title", "Category",
	"Score", "Confidence", "Feature confidence", "Similarities", "Reasoning",
	"Existing match", "Existing status",
}

// WriteDiscoveryReport renders a discovery report as a two-sheet workbook.
func WriteDiscoveryReport(w io.Writer, report *domain.DiscoveryReport, generatedAt time.Time) error {
	if report == nil {
		return fmt.Errorf("write discovery report: report is nil")
	}

	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", matchesSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(matchesSheet, "A1", &matchHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(matchHeader), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(matchesSheet, "A1", lastHeader, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	for i, m := range report.Matches {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			m.LostItem.ID,
			m.LostItem.Title,
			m.FoundItem.ID,
			m.FoundItem.Title,
			string(m.LostItem.Category),
			m.Score,
			string(m.Confidence),
			m.FeatureConfidence,
			strings.Join(m.Similarities, "; "),
			m.Rationale,
			m.ExistingMatchID,
			string(m.ExistingStatus),
		}
		if err := f.SetSheetRow(matchesSheet, cell, &row); err != nil {
			return fmt.Errorf("write match row %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("create summary sheet: %w", err)
	}
	s := report.Summary
	summary := [][]any{
		{"Generated at", generatedAt.UTC().Format(time.RFC3339)},
		{"Lost items analyzed", s.TotalAnalyzed},
		{"Potential matches", s.TotalPotentialMatches},
		{"High confidence", s.HighConfidence},
		{"Medium confidence", s.MediumConfidence},
		{"Low confidence", s.LowConfidence},
		{"Existing matches", s.ExistingMatches},
		{"New potential", s.NewPotential},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
