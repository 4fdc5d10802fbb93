package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/poiesic/bookscan/core"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"gopkg.in/yaml.v3"
)

type outputFormat string

const (
	formatJSON outputFormat = "json"
	formatYAML outputFormat = "yaml"
	formatText outputFormat = "text"
)

func parseFormat(name string) (outputFormat, error) {
	switch f := outputFormat(strings.ToLower(strings.TrimSpace(name))); f {
	case formatJSON, formatYAML, formatText:
		return f, nil
	case "yml":
		return formatYAML, nil
	}
	return "", fmt.Errorf("invalid format %q: must be one of json, yaml, text", name)
}

// bookSummary is the list command's view of a book.
type bookSummary struct {
	ISBN  string `json:"ISBN" yaml:"ISBN"`
	Title string `json:"Title,omitempty" yaml:"Title,omitempty"`
	Lines int    `json:"Lines" yaml:"Lines"`
	Pages int    `json:"Pages" yaml:"Pages"`
}

func summarize(book *core.Book) bookSummary {
	pages := 0
	lastPage := 0
	for _, line := range book.Content {
		if line.Page != lastPage {
			pages++
			lastPage = line.Page
		}
	}
	return bookSummary{
		ISBN:  book.ISBN,
		Title: book.Title,
		Lines: len(book.Content),
		Pages: pages,
	}
}

func writeStructured(w io.Writer, format outputFormat, v any) error {
	switch format {
	case formatYAML:
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(v); err != nil {
			return err
		}
		return encoder.Close()
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
}

func writeResponse(w io.Writer, format outputFormat, response *core.SearchResponse) error {
	if format != formatText {
		return writeStructured(w, format, response)
	}

	isbn := color.New(color.FgCyan).SprintFunc()
	position := color.New(color.FgYellow).SprintFunc()
	for _, hit := range response.Results {
		fmt.Fprintf(w, "%s  page %s line %s\n",
			isbn(hit.ISBN), position(hit.Page), position(hit.Line))
	}
	fmt.Fprintf(w, "%s %s for %q\n",
		humanize.Comma(int64(len(response.Results))),
		pluralize(len(response.Results), "hit", "hits"),
		response.SearchTerm)
	return nil
}

func writeBookList(w io.Writer, format outputFormat, books []*core.Book) error {
	summaries := make([]bookSummary, 0, len(books))
	for _, book := range books {
		summaries = append(summaries, summarize(book))
	}

	if format != formatText {
		return writeStructured(w, format, summaries)
	}

	bold := color.New(color.Bold).SprintFunc()
	totalLines := 0
	for _, s := range summaries {
		fmt.Fprintf(w, "%s  %s (%s pages, %s lines)\n",
			bold(s.ISBN), s.Title, humanize.Comma(int64(s.Pages)), humanize.Comma(int64(s.Lines)))
		totalLines += s.Lines
	}
	fmt.Fprintf(w, "%s %s, %s lines\n",
		humanize.Comma(int64(len(summaries))), pluralize(len(summaries), "book", "books"),
		humanize.Comma(int64(totalLines)))
	return nil
}

// writeMetrics prints every gathered sample as "name{labels} value".
func writeMetrics(w io.Writer, gatherer prometheus.Gatherer) error {
	families, err := gatherer.Gather()
	if err != nil {
		return err
	}

	for _, family := range families {
		for _, metric := range family.GetMetric() {
			fmt.Fprintf(w, "%s%s %s\n", family.GetName(), formatLabels(metric.GetLabel()), formatValue(family.GetType(), metric))
		}
	}
	return nil
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(kind dto.MetricType, metric *dto.Metric) string {
	switch kind {
	case dto.MetricType_COUNTER:
		return humanize.Ftoa(metric.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return humanize.Ftoa(metric.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := metric.GetHistogram()
		return fmt.Sprintf("count=%d sum=%s", h.GetSampleCount(), humanize.Ftoa(h.GetSampleSum()))
	}
	return "?"
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
