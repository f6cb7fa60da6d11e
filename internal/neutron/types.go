package neutron

type FixedIP struct {
	SubnetID  string `json:"subnet_id"`
	IPAddress string `json:"ip_address"`
}

// Port is a neutron port as served by the controller's northbound API.
type Port struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	NetworkID    string    `json:"network_id"`
	TenantID     string    `json:"tenant_id"`
	AdminStateUp bool      `json:"admin_state_up"`
	Status       string    `json:"status"`
	MACAddress   string    `json:"mac_address"`
	DeviceID     string    `json:"device_id"`
	DeviceOwner  string    `json:"device_owner"`
	FixedIPs     []FixedIP `json:"fixed_ips"`
}

type Network struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	TenantID     string   `json:"tenant_id"`
	Status       string   `json:"status"`
	Shared       bool     `json:"shared"`
	AdminStateUp bool     `json:"admin_state_up"`
	Subnets      []string `json:"subnets"`
}

type portsEnvelope struct {
	Ports []Port `json:"ports"`
}

type portEnvelope struct {
	Port Port `json:"port"`
}

type networkEnvelope struct {
	Network Network `json:"network"`
}
