package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetMetricsSingleton(t *testing.T) {
	m := GetMetrics()
	require.NotNil(t, m)
	require.Same(t, m, GetMetrics())

	require.NotNil(t, m.SessionsStartedTotal)
	require.NotNil(t, m.ActiveSessions)
	require.NotNil(t, m.SessionDuration)
	require.NotNil(t, m.PollErrorsTotal)
}
