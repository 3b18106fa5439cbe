package consts

const (
	JSON_LOGGING = "JSON_LOGGING"
	LOG_LEVEL    = "LOG_LEVEL"

	DHCP_CONFIG_FILE             = "DHCP_CONFIG_FILE" // raw network description (yaml or json)
	DHCP_FORCE_RESTART           = "DHCP_FORCE_RESTART"
	DHCP_RESTART_TIMEOUT_SECONDS = "DHCP_RESTART_TIMEOUT_SECONDS"
	DHCP_METRICS_TEXTFILE        = "DHCP_METRICS_TEXTFILE" // node_exporter textfile collector target (optional)

	DHCP_CONFIGMAP_NAME      = "DHCP_CONFIGMAP_NAME"
	DHCP_CONFIGMAP_NAMESPACE = "DHCP_CONFIGMAP_NAMESPACE"
	DHCP_CONFIGMAP_KEY       = "DHCP_CONFIGMAP_KEY"
	DHCP_RESYNC_SECONDS      = "DHCP_RESYNC_SECONDS"
	METRICS_BIND_ADDRESS     = "METRICS_BIND_ADDRESS"
)

// Installation layout of isc-dhcp-server on Debian based systems. These files
// are owned by the package and are only ever edited, never created.
const (
	DefaultsFilePath = "/etc/default/isc-dhcp-server"
	ConfigFilePath   = "/etc/dhcp/dhcpd.conf"
	ServiceName      = "isc-dhcp-server.service"

	InterfacesOption = "INTERFACESv4"
)
