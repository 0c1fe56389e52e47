package metrics

// RecordCallCreated records a successfully created call request
func (m *Metrics) RecordCallCreated() {
	m.callsCreatedTotal.Inc()
}

// RecordCallStarted records a pending call transitioning to active
func (m *Metrics) RecordCallStarted() {
	m.callsActive.Inc()
}

// RecordCallEnded records an active call ending
func (m *Metrics) RecordCallEnded() {
	m.callsActive.Dec()
}

// RecordInvitationResponse records a participant response (accepted/declined)
func (m *Metrics) RecordInvitationResponse(status string) {
	m.invitationsTotal.WithLabelValues(status).Inc()
}

// RecordJoinGate records the outcome of a join gate check
// Outcomes: "started", "waiting", "rejoined"
func (m *Metrics) RecordJoinGate(outcome string) {
	m.joinGateChecksTotal.WithLabelValues(outcome).Inc()
}
