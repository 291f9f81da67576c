package restyutil

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatHeadersRedactsCredentials(t *testing.T) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Cookie", ".ROBLOSECURITY=secret")
	headers.Set("X-Csrf-Token", "token")

	rendered := formatHeaders(headers)
	require.Equal(t, "Accept: application/json\nCookie: <redacted>\nX-Csrf-Token: <redacted>", rendered)
	require.NotContains(t, rendered, "secret")
}

func TestFormatRequestBodyWithoutBody(t *testing.T) {
	require.Equal(t, "<NO BODY AVAILABLE>", formatRequestBody(nil))
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "resty")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("1", "hello")
	contents, err := os.ReadFile(filepath.Join(dir, "1"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(contents))
}
