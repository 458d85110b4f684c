package compound

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tormund/fragvault/codec"
	"github.com/tormund/fragvault/config"
	"github.com/tormund/fragvault/engine"
)

// newTestEngine returns an Engine over a fresh bbolt catalog and an
// in-memory backend, tuned with small fragment/resource thresholds so
// tests exercise multiple fragments and resources without large payloads.
func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend = "memory"
	cfg.FragmentSize = 8
	cfg.TargetResourceSize = 32
	cfg.MaxFragmentsPerResource = 4
	cfg.DefragmentThreshold = 2
	cfg.Wrapper = string(codec.WrapIdentity)
	cfg.Compressor = string(codec.CompressNone)

	eng, err := engine.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}
