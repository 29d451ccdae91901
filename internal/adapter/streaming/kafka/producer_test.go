package kafka

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(nil, "colcap-results")
	require.Error(t, err)
}

func TestOtelHooksNonEmpty(t *testing.T) {
	hooks := otelHooks()
	require.NotEmpty(t, hooks)
}
