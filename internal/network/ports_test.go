package network

import (
	"errors"
	"testing"

	"dlux/internal/neutron"
	"dlux/internal/tables"
	"dlux/internal/urls"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testResolver(t *testing.T) *urls.Resolver {
	t.Helper()
	r := urls.NewResolver()
	require.NoError(t, r.Add(PortDetailView, PortDetailPath))
	require.NoError(t, r.Add(NetworkDetailView, NetworkDetailPath))
	return r
}

func cell(t *testing.T, row tables.Row, column string) tables.Cell {
	t.Helper()
	c, ok := row.Cell(column)
	require.True(t, ok, "missing column %s", column)
	return c
}

func TestPortsTableIdentity(t *testing.T) {
	tbl := NewPortsTable(testResolver(t))

	assert.Equal(t, "neutron_ports", tbl.Name())
	assert.Equal(t, "Neutron Ports", tbl.VerboseName())
	assert.Equal(t, []tables.Header{
		{Name: "id", VerboseName: "Identifier"},
		{Name: "name", VerboseName: "Name"},
		{Name: "network_id", VerboseName: "Network Identifier"},
		{Name: "tenant_id", VerboseName: "Tenant Identifier"},
	}, tbl.Headers())
}

func TestPortsTableLinks(t *testing.T) {
	r := testResolver(t)
	rows, err := NewPortsTable(r).Render([]neutron.Port{{ID: "p1", Name: "web", NetworkID: "n1", TenantID: "t1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	portPath, err := r.Reverse(PortDetailView, "p1")
	require.NoError(t, err)
	networkPath, err := r.Reverse(NetworkDetailView, "n1")
	require.NoError(t, err)

	assert.Equal(t, tables.Cell{Column: "id", Value: "p1", Link: portPath}, cell(t, rows[0], "id"))
	assert.Equal(t, "/network/ports/p1/", portPath)
	assert.Equal(t, tables.Cell{Column: "network_id", Value: "n1", Link: networkPath}, cell(t, rows[0], "network_id"))
	assert.Equal(t, "/network/networks/n1/", networkPath)
	assert.Equal(t, tables.Cell{Column: "name", Value: "web"}, cell(t, rows[0], "name"))
	assert.Equal(t, tables.Cell{Column: "tenant_id", Value: "t1"}, cell(t, rows[0], "tenant_id"))
}

func TestPortsTableNoLinksWithoutID(t *testing.T) {
	rows, err := NewPortsTable(testResolver(t)).Render([]neutron.Port{{ID: "", Name: "orphan", NetworkID: "n1"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Empty(t, cell(t, rows[0], "id").Link)
	network := cell(t, rows[0], "network_id")
	assert.Empty(t, network.Link)
	assert.Equal(t, "n1", network.Value)
}

func TestPortsTableNetworkLinkGatedOnPortID(t *testing.T) {
	_, err := NewPortsTable(testResolver(t)).Render([]neutron.Port{{ID: "p1", NetworkID: ""}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, urls.ErrNoReverseMatch))
}

func TestPortsTableUnknownView(t *testing.T) {
	_, err := NewPortsTable(urls.NewResolver()).Render([]neutron.Port{{ID: "p1", NetworkID: "n1"}})
	require.ErrorIs(t, err, urls.ErrNoReverseMatch)
}
