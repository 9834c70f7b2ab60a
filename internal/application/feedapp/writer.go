package feedapp

import (
	"bufio"
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/adfeed/backend/internal/domain/feed"
)

// rowWriter streams one feed item at a time into the output artifact.
// Values are keyed by network field name; column order follows the spec.
type rowWriter interface {
	// Start writes the file preamble (CSV header row, XML envelope opening)
	Start() error

	// WriteRow writes one item
	WriteRow(values map[string]string) error

	// Close writes the file closing and flushes buffered output. It does
	// not close the underlying writer.
	Close() error
}

// newRowWriter picks the writer for a feed format
func newRowWriter(format feed.Format, w io.Writer, spec *feed.Spec) (rowWriter, error) {
	switch format {
	case feed.FormatCSV:
		return newCSVRowWriter(w, spec), nil
	case feed.FormatXML:
		return newXMLRowWriter(w, spec), nil
	default:
		return nil, fmt.Errorf("unsupported feed format: %s", format)
	}
}

type csvRowWriter struct {
	w    *csv.Writer
	spec *feed.Spec
}

func newCSVRowWriter(w io.Writer, spec *feed.Spec) *csvRowWriter {
	return &csvRowWriter{w: csv.NewWriter(w), spec: spec}
}

func (c *csvRowWriter) Start() error {
	header := make([]string, len(c.spec.Fields))
	for i, field := range c.spec.Fields {
		header[i] = field.Name
	}
	return c.w.Write(header)
}

func (c *csvRowWriter) WriteRow(values map[string]string) error {
	row := make([]string, len(c.spec.Fields))
	for i, field := range c.spec.Fields {
		row[i] = values[field.Name]
	}
	return c.w.Write(row)
}

func (c *csvRowWriter) Close() error {
	c.w.Flush()
	return c.w.Error()
}

// xmlRowWriter emits the RSS 2.0 envelope ad networks expect, with the
// Google Base namespace bound so g:-prefixed field names resolve. Element
// names come straight from the spec, values are escaped.
type xmlRowWriter struct {
	w    *bufio.Writer
	spec *feed.Spec
}

func newXMLRowWriter(w io.Writer, spec *feed.Spec) *xmlRowWriter {
	return &xmlRowWriter{w: bufio.NewWriter(w), spec: spec}
}

func (x *xmlRowWriter) Start() error {
	if _, err := x.w.WriteString(xml.Header); err != nil {
		return err
	}
	if _, err := x.w.WriteString(`<rss version="2.0" xmlns:g="http://base.google.com/ns/1.0">` + "\n"); err != nil {
		return err
	}
	if _, err := x.w.WriteString("<channel>\n<title>"); err != nil {
		return err
	}
	if err := xml.EscapeText(x.w, []byte(x.spec.Name)); err != nil {
		return err
	}
	_, err := x.w.WriteString("</title>\n")
	return err
}

func (x *xmlRowWriter) WriteRow(values map[string]string) error {
	if _, err := x.w.WriteString("<item>\n"); err != nil {
		return err
	}
	for _, field := range x.spec.Fields {
		value, ok := values[field.Name]
		if !ok || value == "" {
			continue
		}
		if _, err := fmt.Fprintf(x.w, "<%s>", field.Name); err != nil {
			return err
		}
		if err := xml.EscapeText(x.w, []byte(value)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(x.w, "</%s>\n", field.Name); err != nil {
			return err
		}
	}
	_, err := x.w.WriteString("</item>\n")
	return err
}

func (x *xmlRowWriter) Close() error {
	if _, err := x.w.WriteString("</channel>\n</rss>\n"); err != nil {
		return err
	}
	return x.w.Flush()
}
