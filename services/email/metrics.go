package emailsvc

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	providerConsole  = "console"
	providerSendgrid = "sendgrid"

	resultSent   = "sent"
	resultFailed = "failed"
)

var emailsSent = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "eduai",
	Subsystem: "email",
	Name:      "messages_total",
	Help:      "Emails handed to the provider, by provider and result.",
}, []string{"provider", "result"})
