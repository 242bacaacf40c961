package presenter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"text/template"
)

// RenderHeadline executes the schema's headline template against data.
// Falls back to the identity label field when no template is declared.
func RenderHeadline(schema *EntitySchema, data map[string]any) string {
	if schema.Headline != "" {
		if rendered := renderTemplate(schema.Headline, data); rendered != "" {
			return rendered
		}
	}
	if schema.Identity.Label != "" {
		if v, ok := data[schema.Identity.Label]; ok {
			return fmt.Sprintf("%v", v)
		}
	}
	return ""
}

func renderTemplate(tmpl string, data map[string]any) string {
	t, err := template.New("").Parse(tmpl)
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return ""
	}
	return strings.TrimSpace(buf.String())
}

// RenderDetail writes the schema's detail sections as aligned label/value
// pairs. Sections with no present fields are skipped entirely.
func RenderDetail(w io.Writer, schema *EntitySchema, data map[string]any, loc Locale) error {
	if headline := RenderHeadline(schema, data); headline != "" {
		if _, err := fmt.Fprintf(w, "%s\n\n", headline); err != nil {
			return err
		}
	}

	for _, section := range schema.Views.Detail.Sections {
		lines := make([][2]string, 0, len(section.Fields))
		for _, name := range section.Fields {
			spec := schema.Fields[name]
			val, ok := data[name]
			if !ok {
				continue
			}
			rendered := FormatField(spec, val, loc)
			if rendered == "" {
				continue
			}
			lines = append(lines, [2]string{fieldLabel(spec, name), rendered})
		}
		if len(lines) == 0 {
			continue
		}

		if section.Heading != "" {
			if _, err := fmt.Fprintf(w, "%s\n", section.Heading); err != nil {
				return err
			}
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, line := range lines {
			fmt.Fprintf(tw, "  %s:\t%s\n", line[0], line[1])
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	return nil
}

// RenderList writes rows as a tab-aligned table of the schema's list columns.
func RenderList(w io.Writer, schema *EntitySchema, rows []map[string]any, loc Locale) error {
	columns := schema.Views.List.Columns
	if len(columns) == 0 {
		columns = []string{schema.Identity.ID, schema.Identity.Label}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(columns))
	for i, name := range columns {
		headers[i] = strings.ToUpper(fieldLabel(schema.Fields[name], name))
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	for _, row := range rows {
		cells := make([]string, len(columns))
		for i, name := range columns {
			cells[i] = FormatField(schema.Fields[name], row[name], loc)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func fieldLabel(spec FieldSpec, name string) string {
	if spec.Label != "" {
		return spec.Label
	}
	return strings.ReplaceAll(name, "_", " ")
}
