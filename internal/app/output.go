package app

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/five82/atlasapi/atlas"
)

type noContentResult struct {
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

// writeJSON prints v indented. Server responses are printed as decoded, so
// large IDs keep every digit.
func writeJSON(w io.Writer, v any) error {
	switch r := v.(type) {
	case *atlas.Response:
		if r.IsNoContent() {
			v = noContentResult{Status: r.StatusCode, Detail: fmt.Sprint(atlas.NoContent)}
		} else {
			v = r.Data
		}
	case *atlas.BatchResult:
		v = r.Items
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}
