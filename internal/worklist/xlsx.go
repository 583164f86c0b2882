package worklist

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/catalog-enrich/internal/model"
)

// ParseXLSXFile reads targets from the first sheet of an XLSX workbook.
// Rows follow the same name/city/kind layout as CSV; a header row is
// skipped when its first cell is "name".
func ParseXLSXFile(path string) ([]model.Target, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "worklist: open xlsx %s", path)
	}
	if len(f.Sheets) == 0 {
		return nil, ErrEmpty
	}

	var targets []model.Target
	for i, row := range f.Sheets[0].Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, c := range row.Cells {
			cells = append(cells, c.String())
		}

		if i == 0 && len(cells) > 0 && strings.EqualFold(strings.TrimSpace(cells[0]), "name") {
			continue
		}
		if t, ok := rowToTarget(cells); ok {
			targets = append(targets, t)
		}
	}
	if len(targets) == 0 {
		return nil, ErrEmpty
	}
	return targets, nil
}
