package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/rs/xid"
	"github.com/rs/zerolog/hlog"

	"github.com/smartok/b64/pkg/codec"
)

// ConvertRequest is the body of /api/convert and /api/download.
type ConvertRequest struct {
	Mode  codec.Mode `json:"mode"`
	Input string     `json:"input"`
	// Filename names the download. Only used by /api/download.
	Filename string `json:"filename,omitempty"`
}

// FileReport is the response of /api/encode-file.
type FileReport struct {
	codec.Report
	Filename string `json:"filename"`
	Size     int    `json:"size"`
}

type apiError struct {
	Error string `json:"error"`
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "ok")
}

func (s *Server) convert(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readConvertRequest(w, r)
	if !ok {
		return
	}
	creq := codec.Request{Mode: req.Mode, Text: req.Input}
	res := s.codec.Convert(creq)
	s.logResult(r, res)
	writeJSON(w, http.StatusOK, codec.NewReport(creq, res))
}

func (s *Server) encodeFile(w http.ResponseWriter, r *http.Request) {
	up, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	creq := codec.Request{Mode: codec.ModeEncode, Data: up.data, Binary: true}
	res := s.codec.Convert(creq)
	s.logResult(r, res)
	writeJSON(w, http.StatusOK, FileReport{
		Report:   codec.NewReport(creq, res),
		Filename: up.filename,
		Size:     len(up.data),
	})
}

type upload struct {
	filename string
	data     []byte
}

// readUpload reads the multipart field "file", bounded by the upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, bodyStatus(err), fmt.Errorf("parse upload: %w", err))
		return upload{}, false
	}
	defer r.MultipartForm.RemoveAll()

	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing file: %w", err))
		return upload{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return upload{}, false
	}
	return upload{filename: header.Filename, data: data}, true
}

// download answers with the conversion as an attachment. A multipart body
// with a "file" field encodes the uploaded file; a JSON body converts its
// input.
func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	var (
		req  ConvertRequest
		creq codec.Request
	)
	if isMultipart(r) {
		up, ok := s.readUpload(w, r)
		if !ok {
			return
		}
		req = ConvertRequest{Mode: codec.ModeEncode, Filename: r.FormValue("filename")}
		if req.Filename == "" && up.filename != "" {
			req.Filename = up.filename + ".b64.txt"
		}
		creq = codec.Request{Mode: codec.ModeEncode, Data: up.data, Binary: true}
	} else {
		var ok bool
		if req, ok = s.readConvertRequest(w, r); !ok {
			return
		}
		creq = codec.Request{Mode: req.Mode, Text: req.Input, Binary: req.Mode == codec.ModeDecode}
	}
	res := s.codec.Convert(creq)
	s.logResult(r, res)
	if !res.Success {
		writeJSON(w, http.StatusUnprocessableEntity, codec.NewReport(creq, res))
		return
	}

	body := []byte(res.Output)
	contentType := "text/plain; charset=utf-8"
	if req.Mode == codec.ModeDecode {
		body = res.Data
		if res.Output == "" && len(res.Data) > 0 {
			contentType = "application/octet-stream"
		}
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadName(req),
	}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// downloadName sanitizes the requested name or makes one up.
func downloadName(req ConvertRequest) string {
	name := filepath.Base(strings.ReplaceAll(req.Filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		ext := ".b64.txt"
		if req.Mode == codec.ModeDecode {
			ext = ".bin"
		}
		name = "b64-" + xid.New().String() + ext
	}
	return name
}

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

func (s *Server) readConvertRequest(w http.ResponseWriter, r *http.Request) (ConvertRequest, bool) {
	var req ConvertRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.maxUpload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, bodyStatus(err), fmt.Errorf("decode request: %w", err))
		return req, false
	}
	if req.Mode == "" {
		req.Mode = codec.ModeEncode
	}
	if err := req.Mode.Set(string(req.Mode)); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("mode %w", err))
		return req, false
	}
	return req, true
}

func (s *Server) logResult(r *http.Request, res codec.Result) {
	ev := hlog.FromRequest(r).Debug().Bool("success", res.Success)
	if !res.Success {
		ev = ev.Str("kind", string(res.Kind)).Err(res.Err)
	}
	ev.Msg("converted")
}

func bodyStatus(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, apiError{Error: err.Error()})
}
