package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"tasklist/internal/models"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatPDF  Format = "pdf"
)

var csvHeader = []string{"id", "title", "description", "priority", "category", "dueDate", "completed"}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatJSON, FormatCSV, FormatPDF:
		return f, nil
	case "":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("неподдерживаемый формат %s", s)
	}
}

// ContentType для ответа HTTP
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// FileName - имя скачиваемого файла
func (f Format) FileName() string {
	return "tasks." + string(f)
}

func Write(w io.Writer, tasks []models.Task, format Format) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, tasks)
	case FormatCSV:
		return writeCSV(w, tasks)
	case FormatPDF:
		return writePDF(w, tasks)
	default:
		return fmt.Errorf("неподдерживаемый формат %s", format)
	}
}

func writeJSON(w io.Writer, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(tasks)
}

func writeCSV(w io.Writer, tasks []models.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range tasks {
		record := []string{
			strconv.Itoa(t.ID), t.Title, t.Description, string(t.Priority),
			t.Category, t.DueDate, strconv.FormatBool(t.Completed),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writePDF(w io.Writer, tasks []models.Task) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(40, 10, "Task list")
	pdf.Ln(12)
	pdf.SetFont("Arial", "", 10)
	for _, t := range tasks {
		status := " "
		if t.Completed {
			status = "x"
		}
		line := fmt.Sprintf("[%s] #%d %s (%s, %s)", status, t.ID, t.Title, t.Priority, t.Category)
		if t.HasDueDate() {
			line += " due " + t.DueDate
		}
		pdf.MultiCell(0, 6, line, "0", "L", false)
		if t.Description != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, t.Description, "0", "L", false)
			pdf.SetFont("Arial", "", 10)
		}
	}
	return pdf.Output(w)
}

// ReadJSON разбирает результат экспорта в JSON
func ReadJSON(r io.Reader) ([]models.Task, error) {
	var tasks []models.Task
	if err := json.NewDecoder(r).Decode(&tasks); err != nil {
		return nil, fmt.Errorf("ошибка разбора JSON: %w", err)
	}
	return tasks, nil
}

// ReadCSV разбирает результат экспорта в CSV
func ReadCSV(r io.Reader) ([]models.Task, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	tasks := make([]models.Task, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) != len(csvHeader) {
			return nil, fmt.Errorf("строка %d: ожидалось %d полей, получено %d", i+2, len(csvHeader), len(rec))
		}
		id, err := strconv.Atoi(rec[0])
		if err != nil {
			return nil, fmt.Errorf("строка %d: неверный id: %w", i+2, err)
		}
		completed, err := strconv.ParseBool(rec[6])
		if err != nil {
			return nil, fmt.Errorf("строка %d: неверный признак выполнения: %w", i+2, err)
		}
		tasks = append(tasks, models.Task{
			ID:          id,
			Title:       rec[1],
			Description: rec[2],
			Priority:    models.Priority(rec[3]),
			Category:    rec[4],
			DueDate:     rec[5],
			Completed:   completed,
		})
	}
	return tasks, nil
}

// Read выбирает разбор по формату. PDF обратно не читается.
func Read(r io.Reader, format Format) ([]models.Task, error) {
	switch format {
	case FormatJSON:
		return ReadJSON(r)
	case FormatCSV:
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("формат %s нельзя загрузить", format)
	}
}
