package inspector

import (
	"encoding/json"

	"github.com/felixgeelhaar/decpomdp-go/domain/inspector"
)

// JSONFormatter renders any export as JSON.
type JSONFormatter struct {
	pretty bool
}

// JSONFormatterOption configures the JSON formatter.
type JSONFormatterOption func(*JSONFormatter)

// WithPrettyPrint indents the output.
func WithPrettyPrint() JSONFormatterOption {
	return func(f *JSONFormatter) {
		f.pretty = true
	}
}

// NewJSONFormatter creates a JSON formatter.
func NewJSONFormatter(opts ...JSONFormatterOption) *JSONFormatter {
	f := &JSONFormatter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format encodes data.
func (f *JSONFormatter) Format(data any) ([]byte, error) {
	if f.pretty {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatType returns inspector.FormatJSON.
func (f *JSONFormatter) FormatType() inspector.ExportFormat {
	return inspector.FormatJSON
}

var _ inspector.Formatter = (*JSONFormatter)(nil)
