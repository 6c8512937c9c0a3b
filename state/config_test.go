package state

import (
	"net/netip"
	"testing"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCentral = `
routers:
  - id: A
    endpoint: 10.0.0.1:5001
  - id: B
    endpoint: 10.0.0.2:5001
  - id: C
    endpoint: 10.0.0.3:5001
hosts:
  - id: H1
    endpoint: 10.0.0.10:5002
    router: A
  - id: H2
    endpoint: 10.0.0.11:5002
    router: C
links:
  - a: A
    b: B
  - a: A
    b: C
    cost: 3
`

func TestCentralConfigParse(t *testing.T) {
	var cfg CentralCfg
	require.NoError(t, yaml.Unmarshal([]byte(sampleCentral), &cfg))
	require.NoError(t, CentralConfigValidator(&cfg))

	assert.True(t, cfg.IsRouter("A"))
	assert.True(t, cfg.IsHost("H1"))
	assert.False(t, cfg.IsRouter("H1"))
	assert.Equal(t, netip.MustParseAddrPort("10.0.0.2:5001"), cfg.GetRouter("B").Endpoint)

	cost, ok := cfg.LinkCost("A", "B")
	require.True(t, ok)
	assert.Equal(t, DefaultLinkCost, cost)
	cost, ok = cfg.LinkCost("C", "A")
	require.True(t, ok)
	assert.Equal(t, uint32(3), cost)
	_, ok = cfg.LinkCost("B", "C")
	assert.False(t, ok)
}

func TestLocalConfigParse(t *testing.T) {
	var cfg CentralCfg
	require.NoError(t, yaml.Unmarshal([]byte(sampleCentral), &cfg))

	var local LocalCfg
	require.NoError(t, yaml.Unmarshal([]byte("id: H1\nbind: 10.0.0.10:5002\nchatter: 5s\n"), &local))
	require.NoError(t, LocalConfigValidator(&cfg, &local))
	assert.Equal(t, 5*time.Second, local.Chatter)

	bad := LocalCfg{Id: "Z", Bind: netip.MustParseAddrPort("10.0.0.9:5000")}
	assert.Error(t, LocalConfigValidator(&cfg, &bad))
}

func TestRouterNeighbours(t *testing.T) {
	var cfg CentralCfg
	require.NoError(t, yaml.Unmarshal([]byte(sampleCentral), &cfg))

	neighs := cfg.RouterNeighbours("A")
	require.Len(t, neighs, 2)
	assert.Equal(t, NodeId("B"), neighs[0].Id)
	assert.Equal(t, DefaultLinkCost, neighs[0].Cost)
	assert.Equal(t, NodeId("C"), neighs[1].Id)
	assert.Equal(t, uint32(3), neighs[1].Cost)

	assert.Empty(t, cfg.RouterNeighbours("Z"))
}

func TestAttachedAndKnownHosts(t *testing.T) {
	var cfg CentralCfg
	require.NoError(t, yaml.Unmarshal([]byte(sampleCentral), &cfg))

	attached := cfg.AttachedHosts("A")
	require.Len(t, attached, 1)
	assert.Equal(t, NodeId("H1"), attached[0].Id)

	assert.Equal(t, []NodeId{"H2"}, cfg.KnownHosts("H1"))
}

func TestCentralConfigValidatorRejects(t *testing.T) {
	base := func() CentralCfg {
		var cfg CentralCfg
		require.NoError(t, yaml.Unmarshal([]byte(sampleCentral), &cfg))
		return cfg
	}

	dup := base()
	dup.Links = append(dup.Links, LinkCfg{A: "B", B: "A"})
	assert.Error(t, CentralConfigValidator(&dup))

	unknown := base()
	unknown.Links = append(unknown.Links, LinkCfg{A: "A", B: "Z"})
	assert.Error(t, CentralConfigValidator(&unknown))

	selfLink := base()
	selfLink.Links = append(selfLink.Links, LinkCfg{A: "B", B: "B"})
	assert.Error(t, CentralConfigValidator(&selfLink))

	orphan := base()
	orphan.Hosts = append(orphan.Hosts, HostCfg{Id: "H3", Endpoint: netip.MustParseAddrPort("10.0.0.12:5002"), Router: "Z"})
	assert.Error(t, CentralConfigValidator(&orphan))

	dupId := base()
	dupId.Hosts = append(dupId.Hosts, HostCfg{Id: "A", Endpoint: netip.MustParseAddrPort("10.0.0.13:5002"), Router: "A"})
	assert.Error(t, CentralConfigValidator(&dupId))
}
