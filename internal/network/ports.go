package network

import (
	"dlux/internal/neutron"
	"dlux/internal/tables"
)

const (
	PortDetailView    = "dlux:network:neutron_ports:detail"
	NetworkDetailView = "dlux:network:neutron_networks:detail"

	PortsIndexPath    = "/network/ports/"
	PortDetailPath    = "/network/ports/{port_id}/"
	NetworkDetailPath = "/network/networks/{network_id}/"

	PortsTableName = "neutron_ports"
)

// Reverser resolves a view name to a path.
type Reverser interface {
	Reverse(name string, args ...string) (string, error)
}

func portLink(r Reverser) tables.LinkFunc[neutron.Port] {
	return func(p neutron.Port) (string, error) {
		if p.ID == "" {
			return "", nil
		}
		return r.Reverse(PortDetailView, p.ID)
	}
}

// networkLink is gated on the port id, not the network id.
// TODO: gate on NetworkID; a port without a network fails the whole render.
func networkLink(r Reverser) tables.LinkFunc[neutron.Port] {
	return func(p neutron.Port) (string, error) {
		if p.ID == "" {
			return "", nil
		}
		return r.Reverse(NetworkDetailView, p.NetworkID)
	}
}

// NewPortsTable declares the neutron ports listing.
func NewPortsTable(r Reverser) *tables.Table[neutron.Port] {
	return tables.New(PortsTableName, "Neutron Ports",
		tables.Column[neutron.Port]{
			Name:        "id",
			VerboseName: "Identifier",
			Value:       func(p neutron.Port) string { return p.ID },
			Link:        portLink(r),
		},
		tables.Column[neutron.Port]{
			Name:        "name",
			VerboseName: "Name",
			Value:       func(p neutron.Port) string { return p.Name },
		},
		tables.Column[neutron.Port]{
			Name:        "network_id",
			VerboseName: "Network Identifier",
			Value:       func(p neutron.Port) string { return p.NetworkID },
			Link:        networkLink(r),
		},
		tables.Column[neutron.Port]{
			Name:        "tenant_id",
			VerboseName: "Tenant Identifier",
			Value:       func(p neutron.Port) string { return p.TenantID },
		},
	)
}
