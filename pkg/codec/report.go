package codec

import "github.com/smartok/b64/pkg/stats"

// Report is the JSON shape of a conversion, shared by the CLI's json output
// and the web API.
type Report struct {
	Success bool         `json:"success"`
	Mode    Mode         `json:"mode"`
	Output  string       `json:"output"`
	Error   string       `json:"error,omitempty"`
	Kind    ErrorKind    `json:"kind,omitempty"`
	Stats   *stats.Stats `json:"stats,omitempty"`
}

// NewReport summarizes res. Statistics are only attached on success.
func NewReport(req Request, res Result) Report {
	r := Report{
		Success: res.Success,
		Mode:    req.Mode,
		Output:  res.Output,
		Error:   res.Message(),
		Kind:    res.Kind,
	}
	if res.Success {
		input := req.Text
		if req.Binary && req.Mode == ModeEncode {
			input = string(req.Data)
		}
		st := stats.Compute(input, res.Output)
		r.Stats = &st
	}
	return r
}
