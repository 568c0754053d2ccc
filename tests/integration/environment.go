package integration

import (
	"os"
	"testing"
	"time"

	"github.com/bizmatters/graphide-orchestrator/internal/config"
	"github.com/bizmatters/graphide-orchestrator/tests/helpers"
	"github.com/stretchr/testify/require"
)

// liveEnvVar switches the suite from in-process fakes to the services
// configured through the usual ONDEMAND_* and JOERN_* variables
const liveEnvVar = "GRAPHIDE_INTEGRATION_LIVE"

// Environment describes the upstream services a suite runs against
type Environment struct {
	Config *config.Config
	IsLive bool

	Completion *helpers.FakeCompletionServer
	Joern      *helpers.FakeJoernServer
}

// SetupEnvironment returns live settings when GRAPHIDE_INTEGRATION_LIVE is
// set, otherwise fake upstreams that are torn down with t
func SetupEnvironment(t *testing.T) *Environment {
	t.Helper()

	cfg, err := config.Load(config.New(), os.Getenv("GRAPHIDE_CONFIG"))
	require.NoError(t, err)

	if os.Getenv(liveEnvVar) != "" {
		if isRunningInCluster() && os.Getenv("JOERN_HOST") == "" {
			cfg.Joern.Host = "joern.graphide.svc"
		}
		return &Environment{Config: cfg, IsLive: true}
	}

	completion := helpers.NewFakeCompletionServer()
	t.Cleanup(completion.Close)
	joern := helpers.NewFakeJoernServer()
	t.Cleanup(joern.Close)

	cfg.OnDemand.BaseURL = completion.URL()
	cfg.OnDemand.APIKey = "integration-key"
	cfg.OnDemand.SessionID = ""
	cfg.OnDemand.RequestTimeout = 5 * time.Second
	cfg.Joern.QueryTimeout = 5 * time.Second

	host, port := splitAddress(t, joern.Address())
	cfg.Joern.Host = host
	cfg.Joern.Port = port

	return &Environment{
		Config:     cfg,
		Completion: completion,
		Joern:      joern,
	}
}

// isRunningInCluster detects if we're running inside a Kubernetes cluster
func isRunningInCluster() bool {
	if _, err := os.Stat("/var/run/secrets/kubernetes.io/serviceaccount/token"); err == nil {
		return true
	}
	return os.Getenv("KUBERNETES_SERVICE_HOST") != ""
}
