package clients

import (
	"time"

	"github.com/spf13/viper"
	"github.com/vitistack/isc-dhcp-deployer/internal/consts"
	"github.com/vitistack/isc-dhcp-deployer/pkg/clients/filestorage"
	"github.com/vitistack/isc-dhcp-deployer/pkg/clients/systemdclient"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/serviceinterface"
	"github.com/vitistack/isc-dhcp-deployer/pkg/interfaces/storageinterface"
	"k8s.io/client-go/kubernetes"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
)

var (
	// Storage is the host filesystem the dhcp files live on.
	Storage storageinterface.Storage
	// Services restarts units through the systemd D-Bus API.
	Services serviceinterface.ServiceController
)

// InitializeClients initializes the global storage and service clients from
// the environment (see internal/consts/consts.go).
func InitializeClients() {
	Storage = filestorage.NewOsStorage()

	opts := []systemdclient.SystemdOption{}
	if secs := viper.GetInt(consts.DHCP_RESTART_TIMEOUT_SECONDS); secs > 0 {
		opts = append(opts, systemdclient.OptionTimeout(time.Duration(secs)*time.Second))
	}
	Services = systemdclient.NewSystemdClient(opts...)
}

// NewKubernetesClient builds a clientset from the in-cluster config or the
// local kubeconfig. Only needed when the raw config comes from a ConfigMap.
func NewKubernetesClient() (kubernetes.Interface, error) {
	cfg, err := config.GetConfig()
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(cfg)
}
