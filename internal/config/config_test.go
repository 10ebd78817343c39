package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/workanator/wrustlr/internal/netproto"
)

func writeConf(t *testing.T, body string) *Document {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "server.conf")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	doc, err := Load(path)
	require.NoError(t, err)
	return doc
}

func TestResolveReferenceScalarFollowsToGroup(t *testing.T) {
	doc := writeConf(t, `
shared:
  echo_main:
    module: echo
    reverse: true
servers:
  - listen:
      protocol: tcp
      address: "*"
      port: 7000
    forward: "shared.echo_main"
`)

	spec, err := LoadModuleSpec(doc, "servers.[0].forward")
	require.NoError(t, err)
	require.Equal(t, "echo", spec.Name)
	require.Equal(t, "shared.echo_main", spec.BasePath)

	reverse, ok := doc.Bool(spec.BasePath + ".reverse")
	require.True(t, ok)
	require.True(t, reverse)
}

func TestResolveReferenceGroupIsItsOwnTarget(t *testing.T) {
	doc := writeConf(t, `
servers:
  - listen:
      protocol: unix
      path: /tmp/wrustlr-test.sock
    forward:
      module: echo
      reverse: false
`)

	spec, err := LoadModuleSpec(doc, "servers.[0].forward")
	require.NoError(t, err)
	require.Equal(t, "echo", spec.Name)
	require.Equal(t, "servers.[0].forward", spec.BasePath)
}

func TestLoadServerListWildcardAddress(t *testing.T) {
	doc := writeConf(t, `
servers:
  - listen:
      protocol: tcp
      address: "*"
      port: 7000
    forward:
      module: echo
  - listen:
      protocol: unix
      path: /tmp/wrustlr-second.sock
    forward:
      module: echo
`)

	specs, err := LoadServerList(doc, "servers")
	require.NoError(t, err)
	require.Len(t, specs, 2)
	require.Equal(t, netproto.TCP, specs[0].Listen.Protocol)
	require.Equal(t, "0.0.0.0", specs[0].Listen.Address)
	require.Equal(t, 7000, specs[0].Listen.Port)
	require.Equal(t, netproto.Unix, specs[1].Listen.Protocol)
	require.Equal(t, "/tmp/wrustlr-second.sock", specs[1].Listen.Path)
}

func TestLoadCoreSpecDefaults(t *testing.T) {
	doc := writeConf(t, `
servers: []
`)

	core, err := LoadCoreSpec(doc)
	require.NoError(t, err)
	require.Greater(t, core.WorkerCountMax, 0)
	require.Equal(t, "info", core.LogLevel)
	require.False(t, core.LogColorize)
}

func TestLoadCoreSpecExplicit(t *testing.T) {
	doc := writeConf(t, `
core:
  worker_count: 4
  log:
    level: debug
    colorize: true
`)

	core, err := LoadCoreSpec(doc)
	require.NoError(t, err)
	require.Equal(t, 4, core.WorkerCountMax)
	require.Equal(t, "debug", core.LogLevel)
	require.True(t, core.LogColorize)
}

func TestResolveReferenceMissingIsConfigError(t *testing.T) {
	doc := writeConf(t, `
servers: []
`)

	_, err := LoadModuleSpec(doc, "servers.[0].forward")
	require.Error(t, err)
}
