// Package report renders detected refactorings for people and tools.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"refdiff/internal/model"
	"refdiff/internal/storage"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatMarkdown, FormatJSON:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Write renders refactorings in the given format.
func Write(w io.Writer, f Format, refs []model.Refactoring) error {
	records := make([]storage.Record, 0, len(refs))
	for _, r := range refs {
		records = append(records, storage.NewRecord(r))
	}
	return WriteRecords(w, f, records)
}

// WriteRecords renders refactorings already reduced to records, such as the
// ones loaded from a stored run.
func WriteRecords(w io.Writer, f Format, records []storage.Record) error {
	records = sorted(records)
	switch f {
	case FormatText:
		return text(w, records)
	case FormatMarkdown:
		return markdown(w, records)
	case FormatJSON:
		return jsonReport(w, records)
	}
	return fmt.Errorf("unknown report format %q", f)
}

func Text(w io.Writer, refs []model.Refactoring) error { return Write(w, FormatText, refs) }

func Markdown(w io.Writer, refs []model.Refactoring) error { return Write(w, FormatMarkdown, refs) }

func JSON(w io.Writer, refs []model.Refactoring) error { return Write(w, FormatJSON, refs) }

func sorted(records []storage.Record) []storage.Record {
	out := append([]storage.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.BeforeKey != b.BeforeKey {
			return a.BeforeKey < b.BeforeKey
		}
		return a.AfterKey < b.AfterKey
	})
	return out
}

func text(w io.Writer, records []storage.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No refactorings detected.")
		return err
	}
	for _, r := range records {
		if _, err := fmt.Fprintln(w, r.Description); err != nil {
			return err
		}
	}
	return nil
}

func markdown(w io.Writer, records []storage.Record) error {
	var sb strings.Builder
	sb.WriteString("# Refactorings\n\n")
	if len(records) == 0 {
		sb.WriteString("No refactorings detected.\n")
	}

	for i := 0; i < len(records); {
		kind := records[i].Kind
		j := i
		for j < len(records) && records[j].Kind == kind {
			j++
		}
		sb.WriteString(fmt.Sprintf("## %s (%d)\n\n", kind, j-i))
		sb.WriteString("| Before | After |\n|---|---|\n")
		for _, r := range records[i:j] {
			sb.WriteString(fmt.Sprintf("| `%s` | `%s` |\n", r.BeforeKey, r.AfterKey))
		}
		sb.WriteString("\n")
		i = j
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

type jsonDocument struct {
	Count        int              `json:"count"`
	Refactorings []storage.Record `json:"refactorings"`
}

func jsonReport(w io.Writer, records []storage.Record) error {
	if records == nil {
		records = []storage.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonDocument{Count: len(records), Refactorings: records})
}
