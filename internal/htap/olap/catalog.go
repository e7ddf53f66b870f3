package olap

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/armadaproject/htapbench/internal/common/htaperrors"
)

//go:embed queries/*.sql
var queryFiles embed.FS

//go:embed streams.yaml
var streamsFile []byte

const NumQueries = 22

// TemplateParams are the values substituted into a query template.
type TemplateParams struct {
	StreamID  int
	Date      string
	BeginDate string
	EndDate   string
	MinDate   string
}

// Catalog holds the analytical query templates and the query order of each stream.
type Catalog struct {
	templates map[int]*template.Template
	streams   [][]int
}

func LoadCatalog() (*Catalog, error) {
	templates := make(map[int]*template.Template, NumQueries)
	for id := 1; id <= NumQueries; id++ {
		name := fmt.Sprintf("queries/%02d.sql", id)
		text, err := queryFiles.ReadFile(name)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		tmpl, err := template.New(name).Option("missingkey=error").Parse(string(text))
		if err != nil {
			return nil, errors.Wrapf(err, "error parsing %s", name)
		}
		templates[id] = tmpl
	}

	var streams [][]int
	if err := yaml.Unmarshal(streamsFile, &streams); err != nil {
		return nil, errors.Wrap(err, "error parsing stream definitions")
	}
	if len(streams) == 0 {
		return nil, errors.New("no streams defined")
	}
	for i, stream := range streams {
		for _, id := range stream {
			if _, ok := templates[id]; !ok {
				return nil, errors.WithStack(&htaperrors.ErrNotFound{
					Type:    "query",
					Value:   fmt.Sprint(id),
					Message: fmt.Sprintf("referenced by stream %d", i),
				})
			}
		}
	}
	return &Catalog{templates: templates, streams: streams}, nil
}

// Stream returns the query order of a stream. Stream ids beyond the defined streams wrap around.
func (c *Catalog) Stream(streamID int) []int {
	return c.streams[streamID%len(c.streams)]
}

func (c *Catalog) NumStreams() int {
	return len(c.streams)
}

func (c *Catalog) Render(queryID int, params TemplateParams) (string, error) {
	tmpl, ok := c.templates[queryID]
	if !ok {
		return "", errors.WithStack(&htaperrors.ErrNotFound{Type: "query", Value: fmt.Sprint(queryID)})
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, params); err != nil {
		return "", errors.Wrapf(err, "error rendering query %d", queryID)
	}
	return buf.String(), nil
}
