package reportexport

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"concord/internal/domain"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

// csvColumns defines the entity consensus CSV header row.
var csvColumns = []string{
	"Entity",
	"Consensus",
	"Mention Count",
	"Distinct Types",
	"Models",
	"Avg Confidence",
}

// CSVWriter exports entity consensus groups as CSV rows.
type CSVWriter struct {
	csv *csv.Writer
}

// NewCSVWriter creates a CSVWriter that writes to w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{csv: csv.NewWriter(w)}
}

// WriteHeader writes the header row.
func (w *CSVWriter) WriteHeader() error {
	return w.csv.Write(csvColumns)
}

// WriteEntityGroups converts consensus groups to CSV rows and writes them.
func (w *CSVWriter) WriteEntityGroups(groups []domain.EntityConsensusGroup) error {
	for i := range groups {
		if err := w.csv.Write(groupToRow(&groups[i])); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes the underlying csv.Writer buffer.
func (w *CSVWriter) Flush() {
	w.csv.Flush()
}

// Error returns any error from the underlying csv.Writer.
func (w *CSVWriter) Error() error {
	return w.csv.Error()
}

func groupToRow(group *domain.EntityConsensusGroup) []string {
	types := []string{}
	seen := map[string]bool{}
	models := make([]string, 0, len(group.Mentions))
	var confidenceSum float64
	for _, m := range group.Mentions {
		key := strings.ToLower(strings.TrimSpace(m.Type))
		if !seen[key] {
			seen[key] = true
			types = append(types, m.Type)
		}
		models = append(models, m.Model)
		confidenceSum += m.Confidence
	}

	avg := 0.0
	if len(group.Mentions) > 0 {
		avg = confidenceSum / float64(len(group.Mentions))
	}

	return []string{
		group.Text,
		string(group.Consensus),
		strconv.Itoa(len(group.Mentions)),
		strings.Join(types, "; "),
		strings.Join(models, "; "),
		strconv.FormatFloat(avg, 'f', 2, 64),
	}
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a content reference for use in Content-Disposition.
// Replaces non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	if s == "" {
		s = "analysis"
	}
	return s
}

// BuildFilename returns a sanitized filename for the Content-Disposition
// header. Format: {sanitized_content_ref}_{YYYY-MM-DD}.{ext}
func BuildFilename(contentRef, ext string) string {
	sanitized := SanitizeFilename(contentRef)
	date := time.Now().Format("2006-01-02")
	return fmt.Sprintf("%s_%s.%s", sanitized, date, ext)
}
