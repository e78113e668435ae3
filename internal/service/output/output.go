package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Format represents command output encoding.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates format values.
func ParseFormat(v string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(v))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format %q", v)
	}
}

// newRequestID uses the same UUID form as the service's X-Request-ID.
func newRequestID() string {
	return uuid.NewString()
}

// ErrorPayload is the error block of a failed command.
type ErrorPayload struct {
	Code    string `json:"code" yaml:"code"`
	Message string `json:"message" yaml:"message"`
}

// Meta describes the invocation that produced an envelope.
type Meta struct {
	RequestID   string `json:"request_id" yaml:"request_id"`
	GeneratedAt string `json:"generated_at" yaml:"generated_at"`
	Profile     string `json:"profile" yaml:"profile"`
	Locale      string `json:"locale" yaml:"locale"`
}

// Envelope is the machine-output payload. Success mirrors the
// {success, data} shape the web front end already consumes.
type Envelope struct {
	Success  bool          `json:"success" yaml:"success"`
	Meta     Meta          `json:"meta" yaml:"meta"`
	Data     any           `json:"data" yaml:"data"`
	Warnings []string      `json:"warnings" yaml:"warnings"`
	Error    *ErrorPayload `json:"error,omitempty" yaml:"error,omitempty"`
}

// BuildEnvelope constructs a response envelope.
func BuildEnvelope(profile, locale string, data any, warnings []string, errPayload *ErrorPayload) Envelope {
	env := Envelope{
		Success: errPayload == nil,
		Meta: Meta{
			RequestID:   newRequestID(),
			GeneratedAt: time.Now().UTC().Truncate(time.Second).Format(time.RFC3339),
			Profile:     profile,
			Locale:      locale,
		},
		Data:     data,
		Warnings: warnings,
		Error:    errPayload,
	}
	if env.Warnings == nil {
		env.Warnings = []string{}
	}
	return env
}

// RenderPayload renders payload in json/yaml format.
func RenderPayload(payload Envelope, format Format) (string, error) {
	switch format {
	case FormatJSON:
		bytes, err := json.MarshalIndent(payload, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal json: %w", err)
		}
		return string(bytes), nil
	case FormatYAML:
		bytes, err := yaml.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("marshal yaml: %w", err)
		}
		return strings.TrimRight(string(bytes), "\n"), nil
	default:
		return "", fmt.Errorf("render payload only supports json/yaml")
	}
}

// WriteOutput writes output to the provided writer and optional file.
func WriteOutput(w io.Writer, text string, outputPath string) error {
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(text+"\n"), 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, text); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// RenderTable renders an aligned plain text table.
func RenderTable(title string, headers []string, rows [][]string) string {
	var b strings.Builder
	if title != "" {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	if len(headers) > 0 {
		_, _ = fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// RenderFields renders label/value pairs, one per line.
func RenderFields(title string, fields [][2]string) string {
	rows := make([][]string, 0, len(fields))
	for _, field := range fields {
		rows = append(rows, []string{field[0] + ":", field[1]})
	}
	return RenderTable(title, nil, rows)
}
