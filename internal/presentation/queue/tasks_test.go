package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryDelayGrowsPerAttempt(t *testing.T) {
	require.Equal(t, time.Minute, RetryDelay(0, nil, nil))
	require.Equal(t, 2*time.Minute, RetryDelay(1, nil, nil))
	require.Equal(t, 3*time.Minute, RetryDelay(2, nil, nil))
}
