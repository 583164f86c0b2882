// Package worklist parses uploaded batches into the ordered list of
// lookup targets the pipeline consumes. Supported formats: CSV, JSON,
// plain text (one target per line), and XLSX.
package worklist

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/catalog-enrich/internal/model"
)

// ErrEmpty is returned when the input parses but contains no targets.
var ErrEmpty = eris.New("worklist: no targets found")

// Supported format names.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "txt"
	FormatXLSX = "xlsx"
)

// DetectFormat guesses the batch format from a file name. Unknown
// extensions fall back to plain text.
func DetectFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	default:
		return FormatText
	}
}

// ParseFile reads a batch from disk, dispatching on the file extension.
func ParseFile(path string) ([]model.Target, error) {
	format := DetectFormat(path)
	if format == FormatXLSX {
		return ParseXLSXFile(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "worklist: open %s", path)
	}
	defer f.Close()
	return Parse(f, format)
}

// Parse reads a batch in the given format. The returned slice preserves
// input order; the pipeline processes it strictly sequentially.
func Parse(r io.Reader, format string) ([]model.Target, error) {
	var (
		targets []model.Target
		err     error
	)
	switch format {
	case FormatCSV:
		targets, err = parseCSV(r)
	case FormatJSON:
		targets, err = parseJSON(r)
	case FormatText, "":
		targets, err = parseText(r)
	default:
		return nil, eris.Errorf("worklist: unsupported format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return nil, ErrEmpty
	}
	return targets, nil
}

// parseCSV accepts rows of name[,city[,kind]]. A header row is skipped
// when its first cell is "name".
func parseCSV(r io.Reader) ([]model.Target, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var targets []model.Target
	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "worklist: read csv row")
		}

		if first {
			first = false
			if len(record) > 0 && strings.EqualFold(strings.TrimSpace(record[0]), "name") {
				continue
			}
		}

		if t, ok := rowToTarget(record); ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

// parseJSON accepts either a bare array of targets, an array of plain
// strings, or an object with a "targets" key.
func parseJSON(r io.Reader) ([]model.Target, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "worklist: read json")
	}

	var targets []model.Target
	if err := json.Unmarshal(data, &targets); err == nil {
		return targets, nil
	}

	var names []string
	if err := json.Unmarshal(data, &names); err == nil {
		for _, n := range names {
			if t, ok := lineToTarget(n); ok {
				targets = append(targets, t)
			}
		}
		return targets, nil
	}

	var wrapper struct {
		Targets []model.Target `json:"targets"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "worklist: parse json")
	}
	return wrapper.Targets, nil
}

// parseText accepts one target per line, optionally "Name, City".
// Blank lines and #-comments are ignored.
func parseText(r io.Reader) ([]model.Target, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "worklist: read text")
	}

	var targets []model.Target
	for _, line := range strings.Split(string(data), "\n") {
		if t, ok := lineToTarget(line); ok {
			targets = append(targets, t)
		}
	}
	return targets, nil
}

func lineToTarget(line string) (model.Target, bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return model.Target{}, false
	}
	if name, city, found := strings.Cut(line, ","); found {
		return rowToTargetParts(name, city, "")
	}
	return rowToTargetParts(line, "", "")
}

func rowToTarget(record []string) (model.Target, bool) {
	var name, city, kind string
	if len(record) > 0 {
		name = record[0]
	}
	if len(record) > 1 {
		city = record[1]
	}
	if len(record) > 2 {
		kind = record[2]
	}
	return rowToTargetParts(name, city, kind)
}

func rowToTargetParts(name, city, kind string) (model.Target, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Target{}, false
	}

	t := model.Target{Name: name}
	city = strings.TrimSpace(city)
	kind = strings.TrimSpace(strings.ToLower(kind))
	if city != "" || kind != "" {
		t.Context = make(map[string]string, 2)
		if city != "" {
			t.Context["city"] = city
		}
		if kind != "" {
			t.Context["kind"] = kind
		}
	}
	return t, true
}
