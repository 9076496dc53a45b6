package httpapi

import (
	"bytes"
	"fmt"

	"github.com/reponseashimwe/ml-pipeline-database/internal/domain"

	"github.com/xuri/excelize/v2"
)

const childrenSheet = "Children"

// ChildrenExportHeader export columns
var ChildrenExportHeader = []string{
	"Child ID",
	"Gender",
	"Gender Text",
	"Current Stunting Status",
	"Current Wasting Status",
	"Created At",
	"Updated At",
}

var childrenColumnWidths = []float64{28, 10, 14, 24, 24, 20, 20}

// GenerateChildrenExport renders children as one xlsx sheet with a frozen header row
func GenerateChildrenExport(children []*domain.Child) ([]byte, error) {
	f := excelize.NewFile()
	// WriteTo needs the file open; every return path closes it explicitly

	index, err := f.NewSheet(childrenSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, header := range ChildrenExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(childrenSheet, cell, header); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(childrenSheet, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set header style: %w", err)
		}

		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(childrenSheet, name, name, childrenColumnWidths[col]); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, c := range children {
		row := []any{
			c.ChildID,
			string(c.Gender),
			c.GenderText,
			statusText(c.CurrentStuntingStatus),
			statusText(c.CurrentWastingStatus),
			c.CreatedAt.Format("2006-01-02 15:04:05"),
			c.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(childrenSheet, cell, &row); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(childrenSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func statusText[T ~string](s *T) string {
	if s == nil {
		return ""
	}
	return string(*s)
}
