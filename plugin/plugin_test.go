package plugin_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/neovim/go-client/msgpack/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snowduck/snowduck/core"
	"github.com/snowduck/snowduck/plugin"
)

type pipeCloser []io.Closer

func (pc pipeCloser) Close() error {
	for _, c := range pc {
		_ = c.Close()
	}
	return nil
}

// newPair connects a plugin to a client endpoint over in-memory pipes.
func newPair(t *testing.T, setup func(p *plugin.Plugin)) *rpc.Endpoint {
	t.Helper()

	serverR, clientW := io.Pipe()
	clientR, serverW := io.Pipe()

	var logs bytes.Buffer
	p, err := plugin.New(serverR, serverW, pipeCloser{serverR, serverW}, plugin.NewWriterLogger(&logs, true))
	require.NoError(t, err)
	setup(p)
	go func() { _ = p.Serve() }()

	client, err := rpc.NewEndpoint(clientR, clientW, pipeCloser{clientR, clientW})
	require.NoError(t, err)
	go func() { _ = client.Serve() }()

	t.Cleanup(func() {
		_ = client.Close()
		_ = p.Close()
	})
	return client
}

func TestPlugin_Call(t *testing.T) {
	client := newPair(t, func(p *plugin.Plugin) {
		require.NoError(t, p.RegisterEndpoint("Echo", func(s string, n int) (string, error) {
			return strings.Repeat(s, n), nil
		}))
		require.NoError(t, p.RegisterEndpoint("Fail", func() (any, error) {
			return nil, core.NewError(core.KindBusy, core.ErrConnectionBusy)
		}))
	})

	var reply string
	require.NoError(t, client.Call("Echo", &reply, "ab", 2))
	assert.Equal(t, "abab", reply)

	var ignored any
	err := client.Call("Fail", &ignored)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "busy: connection is busy")
}

func TestPlugin_RegisterNotAFunction(t *testing.T) {
	r, w := io.Pipe()
	p, err := plugin.New(r, w, pipeCloser{r, w}, nil)
	require.NoError(t, err)

	assert.Error(t, p.RegisterEndpoint("Bad", 3))
}

func TestPlugin_Manifest(t *testing.T) {
	r, w := io.Pipe()
	p, err := plugin.New(r, w, pipeCloser{r, w}, nil)
	require.NoError(t, err)

	require.NoError(t, p.RegisterEndpoint("B", func(a string) error { return nil }))
	require.NoError(t, p.RegisterEndpoint("A", func() (int, error) { return 1, nil }))
	assert.Equal(t, []string{"A", "B"}, p.Methods())

	var buf bytes.Buffer
	require.NoError(t, p.Manifest(&buf, "/bin/snowduck"))

	var manifest struct {
		Executable string `json:"executable"`
		Methods    []struct {
			Name  string `json:"name"`
			NArgs int    `json:"nargs"`
		} `json:"methods"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &manifest))
	assert.Equal(t, "/bin/snowduck", manifest.Executable)
	require.Len(t, manifest.Methods, 2)
	assert.Equal(t, "A", manifest.Methods[0].Name)
	assert.Equal(t, 1, manifest.Methods[1].NArgs)
}

func TestRemoteError(t *testing.T) {
	assert.Nil(t, plugin.RemoteError(nil))
	assert.EqualError(t, plugin.RemoteError(errors.New("boom")), "query_execution: boom")
	assert.EqualError(t,
		plugin.RemoteError(core.NewColumnError("a", errors.New("bad"))),
		"column_conversion: error converting value of column a: bad")
}
