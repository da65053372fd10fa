// Package ingest turns data files into node and link records.
package ingest

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TFMV/keywordgraph/models"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// CSV file names inside a data directory
const (
	NodesFile = "nodes.csv"
	LinksFile = "links.csv"
)

// DataProcessor defines the interface that all data processors must implement
type DataProcessor interface {
	// ProcessData takes raw data bytes and returns the records they describe
	ProcessData(data []byte) (*models.Dataset, error)

	// GetName returns the name of the processor
	GetName() string
}

// Source produces a validated dataset on demand. Sessions call it on every
// full reload.
type Source func() (*models.Dataset, error)

// NewSource picks the data source: a synthetic dataset when count is
// positive, else the file or directory at path, else the built-in sample.
func NewSource(path string, count int, seed int64) Source {
	switch {
	case count > 0:
		return func() (*models.Dataset, error) {
			ds := Synthetic(count, seed)
			return ds, Validate(ds)
		}
	case path != "":
		return func() (*models.Dataset, error) {
			return Load(path)
		}
	default:
		return func() (*models.Dataset, error) {
			return Sample(), nil
		}
	}
}

// Load reads and validates a dataset. A directory is read as nodes.csv and
// links.csv, a file by its extension.
func Load(path string) (*models.Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading data source %s", path)
	}

	var ds *models.Dataset
	if info.IsDir() {
		ds, err = loadCSVDir(path)
	} else {
		ds, err = loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	if err := Validate(ds); err != nil {
		return nil, errors.Wrapf(err, "validating %s", path)
	}
	return ds, nil
}

func loadFile(path string) (*models.Dataset, error) {
	processor, err := GetProcessor(strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return processor.ProcessData(data)
}

func loadCSVDir(dir string) (*models.Dataset, error) {
	nodes, err := os.ReadFile(filepath.Join(dir, NodesFile))
	if err != nil {
		return nil, errors.WithHintf(errors.Wrapf(err, "reading %s", NodesFile),
			"a data directory needs %s and %s", NodesFile, LinksFile)
	}
	links, err := os.ReadFile(filepath.Join(dir, LinksFile))
	if err != nil {
		return nil, errors.WithHintf(errors.Wrapf(err, "reading %s", LinksFile),
			"a data directory needs %s and %s", NodesFile, LinksFile)
	}
	return NewCSVProcessor().ProcessFiles(nodes, links)
}

// GetProcessor returns the appropriate processor for the given format
func GetProcessor(format string) (DataProcessor, error) {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONProcessor(), nil
	case "yaml", "yml":
		return NewYAMLProcessor(), nil
	default:
		return nil, errors.WithHint(errors.Newf("unsupported format: %s", format),
			"use a .json or .yaml file, or a directory with nodes.csv and links.csv")
	}
}

// JSONProcessor handles JSON data
type JSONProcessor struct{}

// NewJSONProcessor creates a new JSON processor
func NewJSONProcessor() *JSONProcessor {
	return &JSONProcessor{}
}

// GetName returns the name of the processor
func (p *JSONProcessor) GetName() string {
	return "JSON Processor"
}

// ProcessData processes JSON data
func (p *JSONProcessor) ProcessData(data []byte) (*models.Dataset, error) {
	var ds models.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON")
	}
	return &ds, nil
}

// YAMLProcessor handles YAML data
type YAMLProcessor struct{}

// NewYAMLProcessor creates a new YAML processor
func NewYAMLProcessor() *YAMLProcessor {
	return &YAMLProcessor{}
}

// GetName returns the name of the processor
func (p *YAMLProcessor) GetName() string {
	return "YAML Processor"
}

// ProcessData processes YAML data
func (p *YAMLProcessor) ProcessData(data []byte) (*models.Dataset, error) {
	var ds models.Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, errors.Wrap(err, "error parsing YAML")
	}
	return &ds, nil
}

// CSVProcessor reads a node table and a link table. Header names are
// matched case-insensitively and common aliases are accepted.
type CSVProcessor struct{}

// NewCSVProcessor creates a new CSV processor
func NewCSVProcessor() *CSVProcessor {
	return &CSVProcessor{}
}

// GetName returns the name of the processor
func (p *CSVProcessor) GetName() string {
	return "CSV Processor"
}

var (
	idColumns        = []string{"id", "keyword", "name", "label"}
	groupColumns     = []string{"group", "category", "cluster"}
	frequencyColumns = []string{"frequency", "freq", "count"}
	sourceColumns    = []string{"source", "from", "src"}
	targetColumns    = []string{"target", "to", "dst"}
	valueColumns     = []string{"value", "weight", "strength"}
)

// ProcessFiles parses the contents of nodes.csv and links.csv
func (p *CSVProcessor) ProcessFiles(nodes, links []byte) (*models.Dataset, error) {
	ds := &models.Dataset{}

	err := readTable(nodes, NodesFile, [][]string{idColumns, groupColumns, frequencyColumns}, func(line int, row []string) error {
		group, err := strconv.Atoi(strings.TrimSpace(row[1]))
		if err != nil {
			return errors.Wrapf(err, "%s line %d: group", NodesFile, line)
		}
		frequency, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return errors.Wrapf(err, "%s line %d: frequency", NodesFile, line)
		}
		ds.Nodes = append(ds.Nodes, models.NodeRecord{
			ID:        strings.TrimSpace(row[0]),
			Group:     group,
			Frequency: frequency,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = readTable(links, LinksFile, [][]string{sourceColumns, targetColumns, valueColumns}, func(line int, row []string) error {
		value, err := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		if err != nil {
			return errors.Wrapf(err, "%s line %d: value", LinksFile, line)
		}
		ds.Links = append(ds.Links, models.LinkRecord{
			Source: strings.TrimSpace(row[0]),
			Target: strings.TrimSpace(row[1]),
			Value:  value,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return ds, nil
}

// readTable finds one column per alias set in the header and calls fn with
// each row reordered to match the alias sets.
func readTable(data []byte, name string, columns [][]string, fn func(line int, row []string) error) error {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return errors.Wrapf(err, "error reading %s header", name)
	}

	indices := make([]int, len(columns))
	for i, aliases := range columns {
		indices[i] = -1
		for j, col := range header {
			if contains(aliases, strings.ToLower(strings.TrimSpace(col))) {
				indices[i] = j
				break
			}
		}
		if indices[i] == -1 {
			return errors.WithHintf(errors.Newf("%s has no %s column", name, aliases[0]),
				"accepted headers: %s", strings.Join(aliases, ", "))
		}
	}

	row := make([]string, len(columns))
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrapf(err, "error reading %s row", name)
		}
		for i, idx := range indices {
			row[i] = record[idx]
		}
		if err := fn(line, row); err != nil {
			return err
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
