package proto

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const greetingProto = `syntax = "proto3";

package test.v1;

message Greeting {
  string text = 1;
  int32 count = 2;
}
`

func writeProtos(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "test", "v1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "test", "v1", "greeting.proto"), []byte(greetingProto), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "broken.proto"), []byte("not a proto file"), 0o600))
	return dir
}

func TestDescriptorRegistry(t *testing.T) {
	dir := writeProtos(t)

	_, err := NewDescriptorRegistry(context.Background(), []string{dir}, nil)
	require.Error(t, err, "broken.proto must fail to compile unless excluded")

	reg, err := NewDescriptorRegistry(context.Background(), []string{dir}, []string{"vendor"})
	require.NoError(t, err)
	require.NotNil(t, reg.MessageForType("test.v1.Greeting"))
	require.Nil(t, reg.MessageForType("test.v1.Missing"))
}

func TestCodecRoundTrip(t *testing.T) {
	reg, err := NewDescriptorRegistry(context.Background(), []string{writeProtos(t)}, []string{"vendor"})
	require.NoError(t, err)

	d, err := NewCodec(reg, "test.v1.Greeting")
	require.NoError(t, err)

	bin, err := d.Encode([]byte(`{"text":"hi","count":3}`))
	require.NoError(t, err)

	out, err := d.Decode(bin)
	require.NoError(t, err)
	require.JSONEq(t, `{"text":"hi","count":3}`, string(out))

	_, err = d.Decode([]byte{0xff, 0xff})
	require.Error(t, err)
}

func TestNewCodecUnknownType(t *testing.T) {
	reg, err := NewDescriptorRegistry(context.Background(), []string{writeProtos(t)}, []string{"vendor"})
	require.NoError(t, err)

	_, err = NewCodec(reg, "test.v1.Nope")
	require.Error(t, err)
}

func TestNoProtoFiles(t *testing.T) {
	_, err := NewDescriptorRegistry(context.Background(), []string{t.TempDir()}, nil)
	require.Error(t, err)
}
