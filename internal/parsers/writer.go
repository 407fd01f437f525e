package parsers

import (
	"bufio"
	"io"
	"path/filepath"
	"strings"

	"sales-analytics-service/internal/models"
	"sales-analytics-service/pkg/errors"

	"github.com/spf13/afero"
)

// EnrichedHeader lists the columns written by WriteEnriched
var EnrichedHeader = append(models.FieldNames[:], "API_Category", "API_Brand", "API_Rating", "API_Match")

// WriteEnriched writes enriched records as pipe-delimited lines with a header
func WriteEnriched(w io.Writer, records []*models.EnrichedRecord) error {
	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(EnrichedHeader, "|") + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := bw.WriteString(strings.Join(r.Fields(), "|") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteEnrichedFile writes enriched records to path, creating parent directories
func WriteEnrichedFile(fs afero.Fs, path string, records []*models.EnrichedRecord) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.FileError(errors.CodeDirectoryError, filepath.Dir(path), err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	defer f.Close()

	if err := WriteEnriched(f, records); err != nil {
		return errors.FileError(errors.CodeWriteFailed, path, err)
	}
	return nil
}
