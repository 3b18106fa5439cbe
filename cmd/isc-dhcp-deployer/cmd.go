package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vitistack/common/pkg/loggers/vlog"
	"github.com/vitistack/common/pkg/serialize"
	"github.com/vitistack/isc-dhcp-deployer/internal/clients"
	"github.com/vitistack/isc-dhcp-deployer/internal/consts"
	"github.com/vitistack/isc-dhcp-deployer/internal/controller"
	"github.com/vitistack/isc-dhcp-deployer/internal/metrics"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/deployer"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/initialchecks"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/resolver"
	"github.com/vitistack/isc-dhcp-deployer/internal/settings"
	"github.com/vitistack/isc-dhcp-deployer/internal/sources"
	"github.com/vitistack/isc-dhcp-deployer/pkg/models/dhcpmodels"
	"k8s.io/apimachinery/pkg/types"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/client/config"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "isc-dhcp-deployer",
		Short:         "Render and apply isc-dhcp-server configuration for a set of networks",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			settings.Init()
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "raw network configuration file (yaml or json)")
	root.PersistentFlags().String("configmap", "", "read the raw configuration from this ConfigMap (namespace/name)")
	root.PersistentFlags().String("configmap-key", "", "ConfigMap data key holding the configuration")
	bindFlag(root, consts.DHCP_CONFIG_FILE, "config")
	bindFlag(root, consts.DHCP_CONFIGMAP_KEY, "configmap-key")

	root.AddCommand(newDeployCmd(), newRenderCmd(), newCheckCmd(), newWatchCmd())
	return root
}

func bindFlag(cmd *cobra.Command, key, name string) {
	if f := cmd.PersistentFlags().Lookup(name); f != nil {
		_ = viper.BindPFlag(key, f)
		return
	}
	_ = viper.BindPFlag(key, cmd.Flags().Lookup(name))
}

func newDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Write the dhcp configuration and restart isc-dhcp-server when needed",
		RunE: func(cmd *cobra.Command, args []string) error {
			clients.InitializeClients()
			ctx := cmd.Context()

			res, err := runDeploy(ctx, cmd)
			metrics.RecordDeploy(res, err)
			if path := viper.GetString(consts.DHCP_METRICS_TEXTFILE); path != "" {
				if werr := metrics.WriteTextfile(path); werr != nil {
					vlog.Warn("failed to write metrics textfile", "path", path, "error", werr)
				}
			}
			if err != nil {
				return err
			}
			vlog.Info("dhcp configuration deployed",
				"defaultsChanged", res.DefaultsChanged, "configChanged", res.ConfigChanged, "restarted", res.Restarted)
			return nil
		},
	}
	cmd.Flags().Bool("force", true, "restart isc-dhcp-server even when no file changed")
	cmd.Flags().String("metrics-textfile", "", "write deploy metrics to this file (node_exporter textfile collector)")
	bindFlag(cmd, consts.DHCP_FORCE_RESTART, "force")
	bindFlag(cmd, consts.DHCP_METRICS_TEXTFILE, "metrics-textfile")
	return cmd
}

func runDeploy(ctx context.Context, cmd *cobra.Command) (deployer.Result, error) {
	cfg, err := loadResolved(ctx, cmd)
	if err != nil {
		return deployer.Result{}, err
	}
	d := deployer.New(clients.Storage, clients.Services)
	return d.Deploy(ctx, cfg, deployer.WithForce(viper.GetBool(consts.DHCP_FORCE_RESTART)))
}

func newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render",
		Short: "Print the dhcpd.conf that deploy would write, without touching the system",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadResolved(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s: %s=%s\n", consts.DefaultsFilePath, consts.InterfacesOption, deployer.InterfacesValue(cfg))
			fmt.Fprintln(cmd.OutOrStdout(), deployer.Render(cfg))
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the isc-dhcp-server installation (files and systemd unit)",
		RunE: func(cmd *cobra.Command, args []string) error {
			clients.InitializeClients()
			return initialchecks.Run(cmd.Context(), clients.Storage, clients.Services)
		},
	}
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Deploy the configuration held in a ConfigMap whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			clients.InitializeClients()
			initialchecks.InitialChecks()

			target, err := configMapRef(cmd)
			if err != nil {
				return err
			}
			restCfg, err := config.GetConfig()
			if err != nil {
				return err
			}
			mgr, err := ctrl.NewManager(restCfg, ctrl.Options{
				Scheme:  clientgoscheme.Scheme,
				Metrics: metricsserver.Options{BindAddress: viper.GetString(consts.METRICS_BIND_ADDRESS)},
				Cache: cache.Options{
					DefaultNamespaces: map[string]cache.Config{target.Namespace: {}},
				},
			})
			if err != nil {
				return err
			}

			d := deployer.New(clients.Storage, clients.Services)
			resync := time.Duration(viper.GetInt(consts.DHCP_RESYNC_SECONDS)) * time.Second
			r := controller.NewDHCPConfigReconciler(mgr, d, target, viper.GetString(consts.DHCP_CONFIGMAP_KEY), resync)
			if err := r.SetupWithManager(mgr); err != nil {
				return err
			}

			vlog.Info("watching dhcp configmap", "configmap", target.String())
			return mgr.Start(ctrl.SetupSignalHandler())
		},
	}
	cmd.Flags().String("metrics-bind-address", "", "address the metrics endpoint binds to")
	cmd.Flags().Int("resync-seconds", 0, "redeploy interval for drift correction")
	bindFlag(cmd, consts.METRICS_BIND_ADDRESS, "metrics-bind-address")
	bindFlag(cmd, consts.DHCP_RESYNC_SECONDS, "resync-seconds")
	return cmd
}

// loadResolved reads the raw configuration from --config or --configmap and resolves it.
func loadResolved(ctx context.Context, cmd *cobra.Command) (dhcpmodels.ResolvedConfig, error) {
	raw, err := loadRaw(ctx, cmd)
	if err != nil {
		return dhcpmodels.ResolvedConfig{}, err
	}
	cfg, err := resolver.Resolve(raw)
	if err != nil {
		return dhcpmodels.ResolvedConfig{}, err
	}
	vlog.Debug("resolved dhcp configuration: " + serialize.JSON(cfg))
	return cfg, nil
}

func loadRaw(ctx context.Context, cmd *cobra.Command) (dhcpmodels.RawConfig, error) {
	if cmRef, _ := cmd.Flags().GetString("configmap"); cmRef != "" || viper.GetString(consts.DHCP_CONFIGMAP_NAME) != "" {
		target, err := configMapRef(cmd)
		if err != nil {
			return dhcpmodels.RawConfig{}, err
		}
		kube, err := clients.NewKubernetesClient()
		if err != nil {
			return dhcpmodels.RawConfig{}, err
		}
		return sources.FromConfigMap(ctx, kube, target.Namespace, target.Name, viper.GetString(consts.DHCP_CONFIGMAP_KEY))
	}

	path := viper.GetString(consts.DHCP_CONFIG_FILE)
	if path == "" {
		return dhcpmodels.RawConfig{}, errors.New("no configuration given: use --config or --configmap")
	}
	return sources.FromFile(path)
}

// configMapRef resolves the ConfigMap from --configmap (namespace/name) or
// the DHCP_CONFIGMAP_NAMESPACE / DHCP_CONFIGMAP_NAME environment.
func configMapRef(cmd *cobra.Command) (types.NamespacedName, error) {
	ref := types.NamespacedName{
		Namespace: viper.GetString(consts.DHCP_CONFIGMAP_NAMESPACE),
		Name:      viper.GetString(consts.DHCP_CONFIGMAP_NAME),
	}
	if s, _ := cmd.Flags().GetString("configmap"); s != "" {
		parsed, err := parseNamespacedName(s)
		if err != nil {
			return types.NamespacedName{}, err
		}
		ref = parsed
	}
	if ref.Name == "" {
		return types.NamespacedName{}, errors.New("no configmap given: use --configmap namespace/name")
	}
	if ref.Namespace == "" {
		ref.Namespace = "default"
	}
	return ref, nil
}
