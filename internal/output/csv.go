/*
PURPOSE:
  Writes preflight reports as CSV.

REQUIREMENTS:
  User-specified:
  - Header provider,model,temperature,max_tokens,status,detail.
  - Newlines and commas inside fields become a space and a semicolon.

  Implementation-discovered:
  - Saved reports overwrite any previous file.

ARCHITECTURE INTEGRATION:
  - Called by: internal/cli (preflight), internal/server
  - Consumes: internal/model.PreflightRow

ERROR HANDLING:
  - Returns error on file creation or write failure.

IMPLEMENTATION RULES:
  - Use encoding/csv.

USAGE:
  err := output.SavePreflightCSV("exports/preflight_results.csv", rows)

SELF-HEALING INSTRUCTIONS:
  - If PreflightRow changes, update the header and record conversion.

RELATED FILES:
  - internal/model/types.go

MAINTENANCE:
  - Update WritePreflightCSV() when PreflightRow changes.
*/

package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/daryltucker/llm-matrix/internal/model"
)

// PreflightCSVName is the default file name for saved preflight reports.
const PreflightCSVName = "preflight_results.csv"

var preflightHeader = []string{
	"provider", "model", "temperature", "max_tokens", "status", "detail",
}

var csvFieldCleaner = strings.NewReplacer("\n", " ", ",", ";")

// WritePreflightCSV serializes preflight rows. Newlines and commas inside
// fields become a space and a semicolon.
func WritePreflightCSV(w io.Writer, rows []model.PreflightRow) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(preflightHeader); err != nil {
		return err
	}

	for _, r := range rows {
		record := []string{
			r.Provider,
			r.Model,
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.Itoa(r.MaxTokens),
			r.Status,
			r.Detail,
		}
		for i := range record {
			record[i] = csvFieldCleaner.Replace(record[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// SavePreflightCSV writes the report to path, creating parent directories.
// It overwrites the file if it exists.
func SavePreflightCSV(path string, rows []model.PreflightRow) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePreflightCSV(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
