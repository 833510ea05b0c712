package frontend

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCLIFrontend_URLMode(t *testing.T) {
	logger := zap.NewNop()
	var out bytes.Buffer
	stub := &stubDetector{result: phishing()}

	cli, err := NewCLIFrontend(stub, dom.NewExtractor(logger), logger, &out, "http://198.51.100.7/login", "", false)
	require.NoError(t, err)

	require.NoError(t, cli.Start())
	assert.Equal(t, phishing(), cli.Result)
	assert.Contains(t, out.String(), "Mode: url_analysis")
	assert.Contains(t, out.String(), "Is phishing: true")
	assert.Contains(t, out.String(), "Confidence: 87")
	assert.Nil(t, stub.lastDom)
}

func TestCLIFrontend_PageMode(t *testing.T) {
	logger := zap.NewNop()
	page := filepath.Join(t.TempDir(), "page.html")
	require.NoError(t, os.WriteFile(page, []byte(`<form><input name="login"></form>`), 0o600))

	var out bytes.Buffer
	stub := &stubDetector{result: phishing()}
	cli, err := NewCLIFrontend(stub, dom.NewExtractor(logger), logger, &out, "https://a.example/", page, true)
	require.NoError(t, err)

	require.NoError(t, cli.Start())
	assert.Contains(t, out.String(), "Mode: content_analysis")
	assert.Contains(t, out.String(), "Login form: true")
	require.NotNil(t, stub.lastDom)
	assert.True(t, stub.lastDom.HasLoginForm)
}

func TestCLIFrontend_Errors(t *testing.T) {
	logger := zap.NewNop()

	_, err := NewCLIFrontend(&stubDetector{}, dom.NewExtractor(logger), logger, nil, " ", "", false)
	assert.ErrorIs(t, err, core.ErrInvalidInput)

	var out bytes.Buffer
	cli, err := NewCLIFrontend(&stubDetector{}, dom.NewExtractor(logger), logger, &out, "https://a.example", "/does/not/exist.html", false)
	require.NoError(t, err)
	assert.Error(t, cli.Start())
	assert.Nil(t, cli.Result)
}
