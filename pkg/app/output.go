package app

import (
	"encoding/hex"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/smartok/b64/pkg/codec"
	"github.com/smartok/b64/pkg/stats"
)

// ConversionError is returned by commands whose conversion failed. Its
// message is the user-visible one.
type ConversionError struct {
	Result codec.Result
}

func (e *ConversionError) Error() string {
	return e.Result.Message()
}

func (e *ConversionError) Unwrap() error {
	return e.Result.Err
}

// WriteResult prints res in the selected output format. A failed conversion
// is returned as a *ConversionError; with json output the failure report is
// printed as well.
func (a *App) WriteResult(req codec.Request, res codec.Result) error {
	if a.Output == OutputFormatJSON {
		if err := a.WriteJSON(codec.NewReport(req, res)); err != nil {
			return err
		}
	} else if res.Success {
		out := []byte(res.Output)
		if len(res.Data) > 0 {
			out = res.Data
		}
		if err := a.WriteBytes(out); err != nil {
			return err
		}
	}

	if !res.Success {
		a.Logger.Debug().Err(res.Err).Str("kind", string(res.Kind)).Msg("conversion failed")
		return &ConversionError{Result: res}
	}
	return nil
}

// WriteBytes prints b in the selected output format. JSON output wraps b in
// a report-less string.
func (a *App) WriteBytes(b []byte) error {
	var err error
	switch a.Output {
	case OutputFormatRaw:
		_, err = a.OutWriter.Write(b)
	case OutputFormatHex:
		_, err = fmt.Fprintln(a.OutWriter, hex.EncodeToString(b))
	case OutputFormatJSON:
		err = a.WriteJSON(string(b))
	default:
		_, err = fmt.Fprintln(a.OutWriter, string(b))
	}
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// WriteJSON pretty prints v.
func (a *App) WriteJSON(v any) error {
	out, err := a.JSONFmt.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	if _, err := fmt.Fprintln(a.ColorableOut, string(out)); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// WriteStats prints conversion statistics as a table, or as JSON with json
// output.
func (a *App) WriteStats(st stats.Stats) error {
	if a.Output == OutputFormatJSON {
		return a.WriteJSON(st)
	}
	stats.Render(a.OutWriter, st, a.NoHeaderFlag)
	return nil
}

// FormatValue pretty prints JSON data, returning data unchanged if it is
// not JSON.
func (a *App) FormatValue(data []byte) []byte {
	if b, err := a.JSONFmt.Format(data); err == nil {
		return b
	}
	return data
}

// SetColor enables colored JSON only when stdout is a terminal.
func (a *App) SetColor() {
	a.JSONFmt.DisabledColor = !a.isTerminal(a.OutWriter) || os.Getenv("NO_COLOR") != ""
}

// Emit writes res to the file at out, or prints it when out is empty.
func (a *App) Emit(req codec.Request, res codec.Result, out string) error {
	if out == "" {
		return a.WriteResult(req, res)
	}
	if !res.Success {
		return &ConversionError{Result: res}
	}

	path, err := homedir.Expand(out)
	if err != nil {
		return fmt.Errorf("expand path %q: %w", out, err)
	}
	data := []byte(res.Output)
	if len(res.Data) > 0 {
		data = res.Data
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write output file: %w", err)
	}
	fmt.Fprintf(a.ErrWriter, "Wrote %d bytes to %v.\n", len(data), path)
	return nil
}
