package catalog

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const catalogJSONFile = "catalog.json"
const catalogYAMLFile = "catalog.yaml"

// File is the on-disk representation of one catalog document.
type File struct {
	Records []*Record `json:"records" yaml:"records"`
}

// LoadFile parses a single catalog document. The format is chosen
// from the file extension: .json, .yaml or .yml.
func LoadFile(path string) ([]*Record, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("Error while reading catalog file: %s. Error: %v", path, err)
	}

	var file File
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		err = json.Unmarshal(data, &file)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		return nil, fmt.Errorf("Unsupported catalog file format: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("Error at parsing catalog document: %s. Error: %v", path, err)
	}

	for _, rec := range file.Records {
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
	}
	return file.Records, nil
}

// LoadDir walks rootDir looking for catalog.json or catalog.yaml
// files and merges their records into one in-memory table.
func LoadDir(rootDir string, verbose bool) (*Table, error) {
	var records []*Record
	err := filepath.Walk(rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		name := info.Name()
		if name != catalogJSONFile && name != catalogYAMLFile && name != "catalog.yml" {
			return nil
		}

		if verbose {
			log.Printf("Loading catalog file: %s\n", path)
		}
		recs, e := LoadFile(path)
		if e != nil {
			return e
		}
		records = append(records, recs...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("No catalog file found under %s", rootDir)
	}
	return NewTable(records)
}
