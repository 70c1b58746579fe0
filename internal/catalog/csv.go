package catalog

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/listing-cli/internal/model"
)

// loadCSV reads products from a catalog CSV export. The first row is a
// header; columns are matched by name so exports with reordered or extra
// columns still load.
func loadCSV(path string) ([]*model.Product, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: open %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "catalog: read header")
	}
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(strings.ToLower(name))] = i
	}
	if _, ok := cols["product_id"]; !ok {
		return nil, eris.New("catalog: missing product_id column")
	}

	var products []*model.Product
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "catalog: read row")
		}
		p := productFromRow(func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		})
		if p.ID == "" {
			continue
		}
		products = append(products, p)
	}

	return products, nil
}

// productFromRow builds a Product from a column accessor shared by the CSV
// and XLSX loaders.
func productFromRow(col func(string) string) *model.Product {
	return &model.Product{
		ID:            col("product_id"),
		Title:         col("title"),
		Universe:      col("universe"),
		ImageURLs:     parseListCell(col("image_url")),
		BulletPoints:  parseListCell(col("bullet_points")),
		MinRankSearch: parseFloatCell(col("min_rank_search")),
		AvgRankSearch: parseFloatCell(col("avg_rank_search")),
		MinRankCat:    parseFloatCell(col("min_rank_category")),
		AvgRankCat:    parseFloatCell(col("avg_rank_category")),
		Category:      col("retailer_category_node"),
		Brand:         col("retailer_brand_name"),
		Description:   col("description_filled"),
	}
}

// parseListCell decodes a JSON-encoded list cell. A cell that is not valid
// JSON is treated as a single-element list; an empty cell is nil.
func parseListCell(cell string) []string {
	if cell == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(cell), &list); err == nil {
		return list
	}
	var single string
	if err := json.Unmarshal([]byte(cell), &single); err == nil {
		return []string{single}
	}
	return []string{cell}
}

func parseFloatCell(cell string) float64 {
	if cell == "" {
		return 0
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0
	}
	return v
}
