package transport

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"freezer-inventory/internal/service"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
)

var errUnsupportedFormat = errors.New("format must be json or csv")

var csvHeader = []string{
	"QR Code", "UPC", "Name", "Category", "Source", "Weight", "Weight Unit",
	"Added Date", "Expiration Date", "Status", "Removed Date", "Notes", "Image URL",
}

// transferDocument is the JSON envelope for exports and imports
type transferDocument struct {
	Items []service.ItemRecord `json:"items"`
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func recordFields(rec *service.ItemRecord) map[string]*string {
	return map[string]*string{
		"qr_code":         &rec.Code,
		"upc":             &rec.ProductCode,
		"name":            &rec.Name,
		"category":        &rec.Category,
		"source":          &rec.Source,
		"weight_unit":     &rec.WeightUnit,
		"added_date":      &rec.AddedDate,
		"expiration_date": &rec.ExpirationDate,
		"status":          &rec.Status,
		"removed_date":    &rec.RemovedDate,
		"notes":           &rec.Notes,
		"image_url":       &rec.ImageURL,
	}
}

func writeCSV(w io.Writer, records []service.ItemRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, rec := range records {
		weight := ""
		if rec.Weight != nil {
			weight = strconv.FormatFloat(*rec.Weight, 'f', -1, 64)
		}
		row := []string{
			rec.Code, rec.ProductCode, rec.Name, rec.Category, rec.Source, weight, rec.WeightUnit,
			rec.AddedDate, rec.ExpirationDate, rec.Status, rec.RemovedDate, rec.Notes, rec.ImageURL,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// readCSV maps columns by header name, so column order and unknown extra
// columns do not matter. Headers may be the export titles or snake_case.
func readCSV(r io.Reader) ([]service.ItemRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return []service.ItemRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = normalizeHeader(h)
	}

	records := []service.ItemRecord{}
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		var rec service.ItemRecord
		fields := recordFields(&rec)
		for i, value := range row {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			if columns[i] == "weight" {
				if value == "" {
					continue
				}
				weight, err := strconv.ParseFloat(value, 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: weight must be a number", line)
				}
				rec.Weight = &weight
				continue
			}
			if field, ok := fields[columns[i]]; ok {
				*field = value
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// readJSON accepts either {"items": [...]} or a bare array
func readJSON(r io.Reader) ([]service.ItemRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		var records []service.ItemRecord
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, err
		}
		return records, nil
	}

	var doc transferDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc.Items == nil {
		return []service.ItemRecord{}, nil
	}
	return doc.Items, nil
}

// transferFormat picks the encoding from ?format=, then the content type
func transferFormat(query, contentType string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(query)) {
	case formatJSON:
		return formatJSON, nil
	case formatCSV:
		return formatCSV, nil
	case "":
		if strings.Contains(strings.ToLower(contentType), "csv") {
			return formatCSV, nil
		}
		return formatJSON, nil
	default:
		return "", errUnsupportedFormat
	}
}
