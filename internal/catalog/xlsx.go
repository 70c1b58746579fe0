package catalog

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/listing-cli/internal/model"
)

// loadXLSX reads products from an XLSX workbook. sheetName selects the
// worksheet; empty selects the first sheet. The first row is a header
// matched by column name, same as the CSV loader.
func loadXLSX(path, sheetName string) ([]*model.Product, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s", path)
	}

	sheet, err := getSheet(f, sheetName)
	if err != nil {
		return nil, err
	}
	if len(sheet.Rows) == 0 {
		return nil, eris.Errorf("catalog: sheet %q is empty", sheet.Name)
	}

	header := rowToStrings(sheet.Rows[0])
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := cols["product_id"]; !ok {
		return nil, eris.New("catalog: missing product_id column")
	}

	var products []*model.Product
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row)
		p := productFromRow(func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(cells) {
				return ""
			}
			return strings.TrimSpace(cells[i])
		})
		if p.ID == "" {
			continue
		}
		products = append(products, p)
	}

	return products, nil
}

func getSheet(f *xlsx.File, sheetName string) (*xlsx.Sheet, error) {
	if sheetName != "" {
		sheet, ok := f.Sheet[sheetName]
		if !ok {
			return nil, eris.Errorf("catalog: sheet %q not found", sheetName)
		}
		return sheet, nil
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("catalog: workbook has no sheets")
	}
	return f.Sheets[0], nil
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for i, cell := range row.Cells {
		cells[i] = cell.String()
	}
	return cells
}
