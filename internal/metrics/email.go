package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Email delivery Prometheus metrics. Defined in a standalone package to avoid
// import cycles between the email service and HTTP packages.

var (
	EmailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_send_success_total",
		Help: "Envíos de email exitosos, por host SMTP",
	}, []string{"host"})

	EmailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "email_send_failure_total",
		Help: "Envíos de email fallidos, por host SMTP",
	}, []string{"host"})

	TransportInitFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "email_transport_init_failures_total",
		Help: "Inicializaciones de transporte SMTP fallidas (verify)",
	})
)

// RegisterEmail registers the email metrics on the given registry (or default if nil).
func RegisterEmail(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{EmailSendSuccess, EmailSendFailure, TransportInitFailures} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
