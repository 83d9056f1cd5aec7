// Package export writes the flattened organization tree to spreadsheet files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alexanderramin/orgctl/internal/tree"
	"github.com/xuri/excelize/v2"
)

type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// ParseFormat accepts "xlsx" or "csv". An empty value is inferred from path.
func ParseFormat(s, path string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		s = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	}
	switch Format(s) {
	case FormatXLSX, FormatCSV:
		return Format(s), nil
	case "":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unknown export format %q (want xlsx|csv)", s)
}

// Header is the column order shared by every format.
var Header = []string{"Depth", "Path", "ID", "Name", "Code", "Type", "Status", "Leader", "Members", "Region"}

// Row is one node of the flattened tree.
type Row struct {
	Depth   int
	Path    string
	ID      string
	Name    string
	Code    string
	Type    string
	Status  string
	Leader  string
	Members int
	Region  string
}

func (r Row) cells() []string {
	return []string{
		strconv.Itoa(r.Depth), r.Path, r.ID, r.Name, r.Code,
		r.Type, r.Status, r.Leader, strconv.Itoa(r.Members), r.Region,
	}
}

// Rows flattens every node of store depth-first, siblings in sort order,
// regardless of any view's expanded state.
func Rows(store *tree.Store) []Row {
	p := tree.NewPresenter(store)
	p.ExpandAll()
	visible := p.FlattenVisible()
	out := make([]Row, 0, len(visible))
	for _, v := range visible {
		n := v.Node
		out = append(out, Row{
			Depth:   v.Depth,
			Path:    strings.Join(store.PathOf(n.ID), " / "),
			ID:      n.ID,
			Name:    n.Name,
			Code:    n.Code,
			Type:    n.Type.String(),
			Status:  n.Status.String(),
			Leader:  n.LeaderName,
			Members: n.MemberCount,
			Region:  n.Region,
		})
	}
	return out
}

func Write(w io.Writer, format Format, rows []Row) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, rows)
	case FormatXLSX:
		return WriteXLSX(w, rows)
	}
	return fmt.Errorf("unknown export format %q", format)
}

func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(r.cells()); err != nil {
			return fmt.Errorf("writing csv row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const sheetName = "Organizations"

var columnWidths = []float64{8, 48, 12, 28, 20, 14, 10, 20, 10, 14}

// WriteXLSX writes a single sheet with a styled header row. Names are
// indented by depth so the hierarchy reads without the Path column.
func WriteXLSX(w io.Writer, rows []Row) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("creating sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for col, h := range Header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return fmt.Errorf("setting header %s: %w", cell, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(Header))
	if err := f.SetCellStyle(sheetName, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}
	for i, width := range columnWidths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("setting column width: %w", err)
		}
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []any{
			r.Depth, r.Path, r.ID, strings.Repeat("  ", r.Depth) + r.Name, r.Code,
			r.Type, r.Status, r.Leader, r.Members, r.Region,
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("writing row %s: %w", r.ID, err)
		}
	}
	if err := f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
