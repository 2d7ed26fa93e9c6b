package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/feichai0017/document-search/internal/models"
	"github.com/feichai0017/document-search/pkg/logger"
)

// Columns is the snapshot header, in write order.
var Columns = []string{
	"file_name",
	"page_number",
	"file_path",
	"file_type",
	"notes",
	"upload_time",
	"words",
	"ocr_attempted",
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Encode writes records as CSV with the Columns header.
func Encode(w io.Writer, records []models.PageRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, r := range records {
		words := r.Words
		if words == nil {
			words = []string{}
		}
		encoded, err := json.Marshal(words)
		if err != nil {
			return fmt.Errorf("encode words of %s: %w", r.FilePath, err)
		}
		row := []string{
			r.FileName,
			strconv.Itoa(r.PageNumber),
			r.FilePath,
			r.FileType,
			r.Notes,
			r.UploadTime.UTC().Format(time.RFC3339Nano),
			string(encoded),
			strconv.FormatBool(r.OCRAttempted),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a snapshot written by Encode or by the legacy service. Header
// names match case-insensitively and extra columns are ignored. Only a
// missing column fails, with models.ErrMalformedRecord. A row that cannot be
// placed in the catalog (short row, no file_path, bad page_number) is logged
// and skipped; an unreadable words or ocr_attempted cell decodes as empty or
// false.
func Decode(r io.Reader, log logger.Logger) ([]models.PageRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w: %w", models.ErrMalformedRecord, err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, dup := pos[name]; !dup {
			pos[name] = i
		}
	}
	width := 0
	for _, col := range Columns {
		i, ok := pos[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q: %w", col, models.ErrMalformedRecord)
		}
		width = max(width, i+1)
	}

	var records []models.PageRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			log.Warn("Skipping unreadable row", logger.Int("row", line), logger.Error(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}

		rowLog := log.With(logger.Int("row", line))
		if len(row) < width {
			rowLog.Warn("Skipping short row",
				logger.Int("fields", len(row)),
				logger.Error(models.ErrMalformedRecord),
			)
			continue
		}

		cell := func(col string) string { return row[pos[col]] }
		filePath := strings.TrimSpace(cell("file_path"))
		if filePath == "" {
			rowLog.Warn("Skipping row without file_path", logger.Error(models.ErrMalformedRecord))
			continue
		}
		rowLog = rowLog.With(logger.String("file_path", filePath))

		page, err := parsePageNumber(cell("page_number"))
		if err != nil {
			rowLog.Warn("Skipping row with unreadable page_number",
				logger.String("value", cell("page_number")),
				logger.Error(models.ErrMalformedRecord),
			)
			continue
		}

		records = append(records, models.PageRecord{
			FileName:     cell("file_name"),
			PageNumber:   page,
			FilePath:     filePath,
			FileType:     cell("file_type"),
			Notes:        cell("notes"),
			UploadTime:   parseTime(cell("upload_time"), rowLog),
			Words:        parseWords(cell("words"), rowLog),
			OCRAttempted: parseBool(cell("ocr_attempted"), rowLog),
		})
	}
	return records, nil
}

// parsePageNumber accepts integers and integral floats ("1.0").
func parsePageNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, errors.New("negative page number")
		}
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 || f != math.Trunc(f) {
		return 0, errors.New("invalid page number")
	}
	return int(f), nil
}

func parseTime(s string, log logger.Logger) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	log.Warn("Unreadable upload_time, using zero time", logger.String("value", s))
	return time.Time{}
}

// parseWords decodes a JSON list, falling back to YAML for the single-quoted
// list literals of older snapshots.
func parseWords(s string, log logger.Logger) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}

	var words []string
	if err := json.Unmarshal([]byte(s), &words); err == nil {
		return nonNil(words)
	}
	if strings.HasPrefix(s, "[") {
		words = nil
		if err := yaml.Unmarshal([]byte(s), &words); err == nil {
			return nonNil(words)
		}
	}

	log.Warn("Unreadable words cell, treating as empty",
		logger.String("value", s),
		logger.Error(models.ErrMalformedRecord),
	)
	return []string{}
}

func parseBool(s string, log logger.Logger) bool {
	s = strings.TrimSpace(s)
	b, err := strconv.ParseBool(s)
	if err != nil {
		if s != "" {
			log.Warn("Unreadable ocr_attempted, treating as pending", logger.String("value", s))
		}
		return false
	}
	return b
}

func nonNil(words []string) []string {
	if words == nil {
		return []string{}
	}
	return words
}
