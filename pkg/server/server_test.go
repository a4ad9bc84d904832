package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartok/b64/pkg/codec"
)

func newTestServer(t *testing.T, opts ...Option) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(codec.MustNew(codec.Options{}), opts...).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIndex(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Base64 Converter")
	require.NotEmpty(t, resp.Header.Get("Request-Id"))
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestConvert(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		req     ConvertRequest
		success bool
		output  string
		kind    codec.ErrorKind
	}{
		{name: "encode", req: ConvertRequest{Mode: codec.ModeEncode, Input: "héllo"}, success: true, output: "aMOpbGxv"},
		{name: "default mode is encode", req: ConvertRequest{Input: "a"}, success: true, output: "YQ=="},
		{name: "decode", req: ConvertRequest{Mode: codec.ModeDecode, Input: "YWJj"}, success: true, output: "abc"},
		{name: "empty", req: ConvertRequest{Mode: codec.ModeDecode}, success: true, output: ""},
		{name: "invalid", req: ConvertRequest{Mode: codec.ModeDecode, Input: "!!!"}, kind: codec.KindInvalidBase64},
		{name: "not text", req: ConvertRequest{Mode: codec.ModeDecode, Input: "//4A"}, kind: codec.KindDecoding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/convert", tt.req)
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var report codec.Report
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
			require.Equal(t, tt.success, report.Success)
			require.Equal(t, tt.output, report.Output)
			require.Equal(t, tt.kind, report.Kind)
			if tt.success {
				require.NotNil(t, report.Stats)
			} else {
				require.NotEmpty(t, report.Error)
			}
		})
	}
}

func TestConvertBadRequest(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/convert", map[string]string{"mode": "rot13"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(srv.URL+"/api/convert", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	get, err := http.Get(srv.URL + "/api/convert")
	require.NoError(t, err)
	defer get.Body.Close()
	require.Equal(t, http.StatusMethodNotAllowed, get.StatusCode)
}

func TestConvertTooLarge(t *testing.T) {
	srv := newTestServer(t, WithMaxUpload(64))

	resp := postJSON(t, srv.URL+"/api/convert", ConvertRequest{Input: strings.Repeat("a", 128)})
	require.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestEncodeFile(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "blob.bin")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0xff, 0x00, 0x61})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/encode-file", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report FileReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.True(t, report.Success)
	require.Equal(t, "/wBh", report.Output)
	require.Equal(t, "blob.bin", report.Filename)
	require.Equal(t, 3, report.Size)
}

func TestEncodeFileMissing(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/encode-file", "text/plain", strings.NewReader("x"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDownload(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/api/download", ConvertRequest{Mode: codec.ModeEncode, Input: "abc", Filename: "../out.txt"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, `attachment; filename=out.txt`, resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "YWJj", string(body))

	resp = postJSON(t, srv.URL+"/api/download", ConvertRequest{Mode: codec.ModeDecode, Input: "//4A"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
	require.Contains(t, resp.Header.Get("Content-Disposition"), ".bin")
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, []byte{0xff, 0xfe, 0x00}, body)

	resp = postJSON(t, srv.URL+"/api/download", ConvertRequest{Mode: codec.ModeDecode, Input: "a"})
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var report codec.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	require.Equal(t, codec.KindInvalidBase64, report.Kind)
}

func TestDownloadFile(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "blob.bin")
	require.NoError(t, err)
	_, err = fw.Write([]byte{0xff, 0x00, 0x61})
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/download", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "attachment; filename=blob.bin.b64.txt", resp.Header.Get("Content-Disposition"))

	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "/wBh", string(out), "the file content is encoded, not the input placeholder")

	page, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer page.Body.Close()
	html, err := io.ReadAll(page.Body)
	require.NoError(t, err)
	require.Contains(t, string(html), "form.append('file', upload.file)")
}

func TestServeShutsDown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- New(codec.MustNew(codec.Options{})).Serve(ctx, ln)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
