package dhcpmodels

// RawConfig is the operator supplied description of the DHCP deployment.
// Pointer fields are nil when absent so that defaults can be told apart from
// explicit zero values.
type RawConfig struct {
	DefaultLeaseTime *int         `json:"defaultLeaseTime,omitempty" yaml:"defaultLeaseTime,omitempty" mapstructure:"defaultLeaseTime"`
	MaxLeaseTime     *int         `json:"maxLeaseTime,omitempty" yaml:"maxLeaseTime,omitempty" mapstructure:"maxLeaseTime"`
	Authoritative    *bool        `json:"authoritative,omitempty" yaml:"authoritative,omitempty" mapstructure:"authoritative"`
	DDNSUpdateStyle  *string      `json:"ddnsUpdateStyle,omitempty" yaml:"ddnsUpdateStyle,omitempty" mapstructure:"ddnsUpdateStyle"`
	Networks         []RawNetwork `json:"networks" yaml:"networks" mapstructure:"networks"`
}

// RawNetwork is one segment as written by the operator. Empty strings mean
// the value was not given.
type RawNetwork struct {
	Iface       string   `json:"iface" yaml:"iface" mapstructure:"iface"`
	Subnet      string   `json:"subnet" yaml:"subnet" mapstructure:"subnet"`
	Netmask     string   `json:"netmask,omitempty" yaml:"netmask,omitempty" mapstructure:"netmask"`
	Routers     string   `json:"routers,omitempty" yaml:"routers,omitempty" mapstructure:"routers"`
	BeginIP     string   `json:"beginIP,omitempty" yaml:"beginIP,omitempty" mapstructure:"beginIP"`
	EndIP       string   `json:"endIP,omitempty" yaml:"endIP,omitempty" mapstructure:"endIP"`
	DomainName  string   `json:"domainName" yaml:"domainName" mapstructure:"domainName"`
	Nameservers []string `json:"nameservers" yaml:"nameservers" mapstructure:"nameservers"`
}

type GlobalSettings struct {
	DefaultLeaseTime int    `json:"defaultLeaseTime"`
	MaxLeaseTime     int    `json:"maxLeaseTime"`
	Authoritative    bool   `json:"authoritative"`
	DDNSUpdateStyle  string `json:"ddnsUpdateStyle"`
}

// NetworkSegment is a fully resolved segment: Routers, BeginIP and EndIP are
// always set and inside the Subnet/Netmask block.
type NetworkSegment struct {
	Iface       string   `json:"iface"`
	Subnet      string   `json:"subnet"`
	Netmask     string   `json:"netmask"`
	Routers     string   `json:"routers"`
	BeginIP     string   `json:"beginIP"`
	EndIP       string   `json:"endIP"`
	DomainName  string   `json:"domainName"`
	Nameservers []string `json:"nameservers"`
}

// ResolvedConfig is the validated and defaulted configuration. Networks are
// emitted in the order they appear here.
type ResolvedConfig struct {
	GlobalSettings

	Networks []NetworkSegment `json:"networks"`
}

// Interfaces returns the segment interfaces in order.
func (c ResolvedConfig) Interfaces() []string {
	out := make([]string, 0, len(c.Networks))
	for _, n := range c.Networks {
		out = append(out, n.Iface)
	}
	return out
}
