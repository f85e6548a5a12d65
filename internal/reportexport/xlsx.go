package reportexport

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"concord/internal/domain"
)

// BuildWorkbook renders one analysis run as an xlsx workbook with summary,
// pairwise comparison, entity consensus, conflict, and recommendation sheets.
func BuildWorkbook(run *domain.AnalysisRun, artifacts *domain.RunArtifacts) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := writeSummarySheet(f, run, artifacts); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeComparisonSheet(f, artifacts.Comparisons); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeEntitySheet(f, artifacts.EntityGroups); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeConflictSheet(f, artifacts.Conflicts); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeRecommendationSheet(f, artifacts.Consolidated.RecommendedActions); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

func writeSummarySheet(f *excelize.File, run *domain.AnalysisRun, artifacts *domain.RunArtifacts) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("renaming summary sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Content", run.ContentRef},
		{"Run ID", run.ID.String()},
		{"Created At", run.CreatedAt.Format("2006-01-02 15:04:05 UTC")},
		{"Models", run.ModelCount},
		{"Conflicts", run.ConflictCount},
		{"Confidence Score", run.ConfidenceScore},
		{"Summary", artifacts.Consolidated.Summary},
		{},
		{"Common Findings"},
	}
	for _, finding := range artifacts.Consolidated.CommonFindings {
		rows = append(rows, []interface{}{"", finding})
	}

	return writeRows(f, sheet, 1, rows)
}

func writeComparisonSheet(f *excelize.File, comparisons []domain.PairwiseComparison) error {
	const sheet = "Comparisons"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating comparison sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Model A", "Model B", "Similarity", "Agreements", "Differences", "Summary"},
	}
	for _, cmp := range comparisons {
		rows = append(rows, []interface{}{
			cmp.ModelA,
			cmp.ModelB,
			cmp.Similarity,
			len(cmp.Agreements),
			len(cmp.Differences),
			cmp.Summary,
		})
	}

	return writeRows(f, sheet, 1, rows)
}

func writeEntitySheet(f *excelize.File, groups []domain.EntityConsensusGroup) error {
	const sheet = "Entities"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating entity sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Entity", "Consensus", "Mentions", "Types", "Models"},
	}
	for _, g := range groups {
		types := make([]string, 0, len(g.Mentions))
		models := make([]string, 0, len(g.Mentions))
		for _, m := range g.Mentions {
			types = append(types, m.Type)
			models = append(models, m.Model)
		}
		rows = append(rows, []interface{}{
			g.Text,
			string(g.Consensus),
			len(g.Mentions),
			strings.Join(types, "; "),
			strings.Join(models, "; "),
		})
	}

	return writeRows(f, sheet, 1, rows)
}

func writeConflictSheet(f *excelize.File, conflicts []domain.ConflictPoint) error {
	const sheet = "Conflicts"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating conflict sheet: %w", err)
	}

	rows := [][]interface{}{
		{"ID", "Category", "Severity", "Description", "Perspective A", "Perspective B", "Resolution"},
	}
	for _, c := range conflicts {
		rows = append(rows, []interface{}{
			c.ID,
			string(c.Category),
			string(c.Severity),
			c.Description,
			c.PerspectiveA,
			c.PerspectiveB,
			c.Resolution,
		})
	}

	return writeRows(f, sheet, 1, rows)
}

func writeRecommendationSheet(f *excelize.File, actions []string) error {
	const sheet = "Recommendations"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating recommendation sheet: %w", err)
	}

	rows := [][]interface{}{
		{"Priority", "Action"},
	}
	for i, action := range actions {
		rows = append(rows, []interface{}{i + 1, action})
	}

	return writeRows(f, sheet, 1, rows)
}

func writeRows(f *excelize.File, sheet string, startRow int, rows [][]interface{}) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, startRow+i)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, startRow+i, err)
		}
	}
	return nil
}
