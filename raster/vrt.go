package raster

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"path/filepath"

	"github.com/CloudyKit/jet"
)

// VRT-style mosaic descriptor of one assembled layer stack. One
// band per layer, band order following locator order.
type VRTDataset struct {
	XMLName        xml.Name         `xml:"VRTDataset"`
	SRS            string           `xml:"SRS,omitempty"`
	VRTRasterBands []*VRTRasterBand `xml:"VRTRasterBand"`
}

type VRTRasterBand struct {
	XMLName      xml.Name      `xml:"VRTRasterBand"`
	Band         int           `xml:"band,attr"`
	Description  string        `xml:"Description"`
	NoDataValue  float64       `xml:"NoDataValue"`
	Scale        float64       `xml:"Scale"`
	Offset       float64       `xml:"Offset"`
	SimpleSource *SimpleSource `xml:"SimpleSource"`
}

type SimpleSource struct {
	SourceFileName string `xml:"SourceFilename"`
}

// BuildDescriptor renders the default mosaic descriptor for a
// locator list.
func BuildDescriptor(locators []string, labels []string, crs string, scale, offset, noData float64) (string, error) {
	ds := &VRTDataset{SRS: crs}
	for i, locator := range locators {
		ds.VRTRasterBands = append(ds.VRTRasterBands, &VRTRasterBand{
			Band:         i + 1,
			Description:  labels[i],
			NoDataValue:  noData,
			Scale:        scale,
			Offset:       offset,
			SimpleSource: &SimpleSource{SourceFileName: locator},
		})
	}

	out, err := xml.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("Descriptor marshalling error: %v", err)
	}
	return string(out), nil
}

// DescriptorData is the payload available to custom descriptor
// templates.
type DescriptorData struct {
	Locators []string
	Labels   []string
	CRS      string
	Scale    float64
	Offset   float64
	NoData   float64
}

// RenderDescriptorTemplate renders a catalog-supplied descriptor
// template over the layer stack.
func RenderDescriptorTemplate(templatePath string, data *DescriptorData) (string, error) {
	view := jet.NewSet(jet.SafeWriter(func(w io.Writer, b []byte) {
		w.Write(b)
	}), filepath.Dir(templatePath), "/")

	template, err := view.GetTemplate(filepath.Base(templatePath))
	if err != nil {
		return "", fmt.Errorf("Descriptor template error: %v", err)
	}

	var resBuf bytes.Buffer
	vars := make(jet.VarMap)
	if err = template.Execute(&resBuf, vars, data); err != nil {
		return "", fmt.Errorf("Descriptor template error: %v", err)
	}
	return resBuf.String(), nil
}
