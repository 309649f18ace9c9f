package account

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultCreated = "created"
	resultExists  = "exists"
	resultFailed  = "failed"

	resultAuthenticated = "authenticated"
	resultPasswordReset = "password_change_required"
)

var (
	provisionedAccounts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduai",
		Subsystem: "accounts",
		Name:      "provisioned_total",
		Help:      "Account provisioning attempts, by account type and result.",
	}, []string{"type", "result"})

	signIns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduai",
		Subsystem: "accounts",
		Name:      "sign_ins_total",
		Help:      "Sign in attempts, by claimed account type and result.",
	}, []string{"type", "result"})

	deliveryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eduai",
		Subsystem: "accounts",
		Name:      "credential_delivery_failures_total",
		Help:      "Credentials that could not be handed to the email service, by account type.",
	}, []string{"type"})
)
