package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/deployer"
	"github.com/vitistack/isc-dhcp-deployer/internal/services/resolver"
	crmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

const (
	OutcomeSuccess        = "success"
	OutcomeInvalidConfig  = "invalid_config"
	OutcomeMissingFile    = "missing_file"
	OutcomeStorageError   = "storage_error"
	OutcomeServiceControl = "service_control_error"
	OutcomeOther          = "error"
)

var (
	DeploysTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "isc_dhcp_deployer",
		Name:      "deploys_total",
		Help:      "Number of deploy attempts by outcome.",
	}, []string{"outcome"})

	RestartsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "isc_dhcp_deployer",
		Name:      "service_restarts_total",
		Help:      "Number of isc-dhcp-server restarts triggered.",
	})

	LastSuccessTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "isc_dhcp_deployer",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix time of the last successful deploy.",
	})
)

// The controller-runtime registry is served by the manager in watch mode and
// exported to a textfile for one-shot runs.
func init() {
	crmetrics.Registry.MustRegister(DeploysTotal, RestartsTotal, LastSuccessTimestamp)
}

// RecordDeploy accounts for one deploy attempt.
func RecordDeploy(res deployer.Result, err error) {
	DeploysTotal.WithLabelValues(Outcome(err)).Inc()
	if res.Restarted {
		RestartsTotal.Inc()
	}
	if err == nil {
		LastSuccessTimestamp.Set(float64(time.Now().Unix()))
	}
}

// Outcome maps a resolve or deploy error to its metric label.
func Outcome(err error) string {
	var (
		verr    *resolver.ValidationError
		missing *deployer.MissingFileError
		serr    *deployer.StorageError
		cerr    *deployer.ServiceControlError
	)
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.As(err, &verr):
		return OutcomeInvalidConfig
	case errors.As(err, &missing):
		return OutcomeMissingFile
	case errors.As(err, &serr):
		return OutcomeStorageError
	case errors.As(err, &cerr):
		return OutcomeServiceControl
	default:
		return OutcomeOther
	}
}

// WriteTextfile writes all registered metrics in the node_exporter textfile format.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, crmetrics.Registry)
}
