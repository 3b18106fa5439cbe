package settings

import (
	"github.com/spf13/viper"
	"github.com/vitistack/common/pkg/loggers/vlog"
	"github.com/vitistack/common/pkg/settings/dotenv"
	"github.com/vitistack/isc-dhcp-deployer/internal/consts"
)

func Init() {
	viper.SetDefault(consts.JSON_LOGGING, true)
	viper.SetDefault(consts.LOG_LEVEL, "info")
	viper.SetDefault(consts.DHCP_FORCE_RESTART, true)
	viper.SetDefault(consts.DHCP_RESTART_TIMEOUT_SECONDS, 30)
	viper.SetDefault(consts.DHCP_CONFIGMAP_KEY, "dhcp.yaml")
	viper.SetDefault(consts.DHCP_RESYNC_SECONDS, 300)
	viper.SetDefault(consts.METRICS_BIND_ADDRESS, ":8080")

	dotenv.LoadDotEnv()

	// Read environment variables automatically
	viper.AutomaticEnv()

	printEnvironmentSettings()
}

func printEnvironmentSettings() {
	settings := []string{
		consts.JSON_LOGGING,
		consts.LOG_LEVEL,
		consts.DHCP_CONFIG_FILE,
		consts.DHCP_FORCE_RESTART,
		consts.DHCP_RESTART_TIMEOUT_SECONDS,
		consts.DHCP_METRICS_TEXTFILE,
		consts.DHCP_CONFIGMAP_NAME,
		consts.DHCP_CONFIGMAP_NAMESPACE,
		consts.DHCP_CONFIGMAP_KEY,
		consts.DHCP_RESYNC_SECONDS,
		consts.METRICS_BIND_ADDRESS,
	}

	for _, s := range settings {
		val := viper.Get(s)
		if val != nil {
			// #nosec G202
			vlog.Debug(s + "=" + viper.GetString(s))
		}
	}
}
