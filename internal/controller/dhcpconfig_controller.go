/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package controller

import (
	"context"
	"time"

	"github.com/vitistack/common/pkg/loggers/vlog"
	"github.com/vitistack/common/pkg/serialize"
	"github.com/vitistack/isc-dhcp-deployer/internal/metrics"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/deployer"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/resolver"
	"github.com/vitistack/isc-dhcp-deployer/internal/sources"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/builder"
	"sigs.k8s.io/controller-runtime/pkg/client"
	"sigs.k8s.io/controller-runtime/pkg/controller"
	logf "sigs.k8s.io/controller-runtime/pkg/log"
	"sigs.k8s.io/controller-runtime/pkg/predicate"
)

// DHCPConfigReconciler watches a single ConfigMap holding the raw DHCP
// configuration and deploys it to the local isc-dhcp-server whenever it
// changes. Deploys never force a restart, so resyncs of an unchanged
// ConfigMap leave the running service alone.
type DHCPConfigReconciler struct {
	client.Client
	Scheme   *runtime.Scheme
	Deployer *deployer.Deployer

	ConfigMap types.NamespacedName
	Key       string
	Resync    time.Duration
}

// +kubebuilder:rbac:groups="",resources=configmaps,verbs=get;list;watch

// Reconcile loads the ConfigMap, resolves the configuration and deploys it.
// Invalid configurations and failed deploys are logged and counted but not
// requeued: the next ConfigMap change or resync triggers a new attempt.
func (r *DHCPConfigReconciler) Reconcile(ctx context.Context, req ctrl.Request) (ctrl.Result, error) {
	log := logf.FromContext(ctx)

	cm := &corev1.ConfigMap{}
	if err := r.Get(ctx, req.NamespacedName, cm); err != nil {
		// A deleted ConfigMap keeps the last deployed configuration in place.
		return ctrl.Result{}, client.IgnoreNotFound(err)
	}

	raw, err := sources.FromConfigMapObject(cm, r.Key)
	if err != nil {
		log.Error(err, "failed to read dhcp configuration from configmap", "key", r.Key)
		metrics.RecordDeploy(deployer.Result{}, err)
		return ctrl.Result{}, nil
	}

	cfg, err := resolver.Resolve(raw)
	if err != nil {
		log.Error(err, "invalid dhcp configuration", "configmap", req.NamespacedName.String())
		metrics.RecordDeploy(deployer.Result{}, err)
		return ctrl.Result{}, nil
	}
	vlog.Debug("resolved dhcp configuration: " + serialize.JSON(cfg))

	res, err := r.Deployer.Deploy(ctx, cfg, deployer.WithForce(false))
	metrics.RecordDeploy(res, err)
	if err != nil {
		log.Error(err, "dhcp deploy failed", "outcome", metrics.Outcome(err))
		return ctrl.Result{}, nil
	}

	log.Info("dhcp configuration deployed",
		"defaultsChanged", res.DefaultsChanged, "configChanged", res.ConfigChanged, "restarted", res.Restarted)
	return ctrl.Result{RequeueAfter: r.Resync}, nil
}

// SetupWithManager registers the controller with the manager. Only the
// configured ConfigMap is reconciled, one request at a time.
func (r *DHCPConfigReconciler) SetupWithManager(mgr ctrl.Manager) error {
	isTarget := predicate.NewPredicateFuncs(func(o client.Object) bool {
		return o.GetNamespace() == r.ConfigMap.Namespace && o.GetName() == r.ConfigMap.Name
	})
	return ctrl.NewControllerManagedBy(mgr).
		For(&corev1.ConfigMap{}, builder.WithPredicates(isTarget)).
		WithOptions(controller.Options{MaxConcurrentReconciles: 1}).
		Named("dhcpconfig").
		Complete(r)
}

// NewDHCPConfigReconciler constructs a reconciler wired to the manager client.
func NewDHCPConfigReconciler(mgr ctrl.Manager, d *deployer.Deployer, configMap types.NamespacedName, key string, resync time.Duration) *DHCPConfigReconciler {
	return &DHCPConfigReconciler{
		Client:    mgr.GetClient(),
		Scheme:    mgr.GetScheme(),
		Deployer:  d,
		ConfigMap: configMap,
		Key:       key,
		Resync:    resync,
	}
}
