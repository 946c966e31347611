package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConfigEnabled(t *testing.T) {
	cases := []struct {
		config  Config
		enabled bool
	}{
		{config: Config{}, enabled: false},
		{config: Config{Otlp: OtlpConfig{Traces: OtlpConnConfig{HttpEndpoint: "http://localhost:4318/v1/traces"}}}, enabled: true},
		{config: Config{Otlp: OtlpConfig{Metrics: OtlpConnConfig{GrpcEndpoint: "http://localhost:4317"}}}, enabled: true},
	}
	for _, c := range cases {
		require.Equal(t, c.enabled, c.config.Enabled())
	}
}

func TestSetupDisabled(t *testing.T) {
	tel, err := Setup(context.Background(), "fimfiction-test", Config{})
	require.NoError(t, err)
	require.Nil(t, tel.TracerProvider)
	require.Nil(t, tel.MeterProvider)
	require.NoError(t, tel.Shutdown(context.Background()))
}
