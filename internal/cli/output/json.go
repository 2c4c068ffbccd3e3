package output

import (
	"encoding/json"
	"io"

	"github.com/tidwall/pretty"
)

// JSONFormatter writes indented JSON, colored when Color is set.
type JSONFormatter struct {
	Color bool
}

var prettyOptions = &pretty.Options{Width: 80, Prefix: "", Indent: "  "}

// Format writes data as JSON followed by a newline.
func (f *JSONFormatter) Format(w io.Writer, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	out := pretty.PrettyOptions(raw, prettyOptions)
	if f.Color {
		out = pretty.Color(out, nil)
	}
	_, err = w.Write(out)
	return err
}
