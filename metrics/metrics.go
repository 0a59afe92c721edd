// Package metrics collects per-request structured event records and
// process-level prometheus counters for the resolution and
// extraction pipeline.
package metrics

import (
	"bytes"
	"encoding/json"
	"time"
)

type ResolverInfo struct {
	Dataset      string        `json:"dataset"`
	Cadence      string        `json:"cadence"`
	NumRequested int           `json:"num_requested"`
	NumMatched   int           `json:"num_matched"`
	NumUnmatched int           `json:"num_unmatched"`
	Duration     time.Duration `json:"duration"`
}

type AssemblerInfo struct {
	NumLocators int           `json:"num_locators"`
	Mode        string        `json:"mode"`
	Duration    time.Duration `json:"duration"`
}

type ExtractInfo struct {
	GeometryKind string        `json:"geometry_kind"`
	NumFeatures  int           `json:"num_features"`
	NumLayers    int           `json:"num_layers"`
	NumRows      int           `json:"num_rows"`
	Duration     time.Duration `json:"duration"`
}

type Info struct {
	ReqTime     string         `json:"req_time"`
	ReqDuration time.Duration  `json:"req_duration"`
	Resolver    *ResolverInfo  `json:"resolver"`
	Assembler   *AssemblerInfo `json:"assembler"`
	Extract     *ExtractInfo   `json:"extract"`
}

type Collector struct {
	Info   *Info
	logger Logger
}

func NewCollector(logger Logger) *Collector {
	return &Collector{
		Info: &Info{
			ReqTime:   time.Now().UTC().Format(time.RFC3339),
			Resolver:  &ResolverInfo{},
			Assembler: &AssemblerInfo{},
			Extract:   &ExtractInfo{},
		},
		logger: logger,
	}
}

func (c *Collector) Log() {
	if c.logger != nil {
		c.logger.Log(c.Info)
	}
}

func (i *Info) ToJSON() (string, error) {
	buf := new(bytes.Buffer)
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(i)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
