// Package catalog lists the hardware backends visible to the connected
// account.
package catalog

import (
	"context"
	"fmt"
	"sort"

	"github.com/danmuck/qpuctl/internal/runtime"
	"github.com/rs/zerolog"
)

// ListHardware returns every non-simulator backend, logging one status line
// per device. An empty account view is a warning, not an error.
func ListHardware(ctx context.Context, client *runtime.Client, logger zerolog.Logger) ([]runtime.BackendInfo, error) {
	all, err := client.Backends(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}

	hardware := make([]runtime.BackendInfo, 0, len(all))
	for _, info := range all {
		if info.Simulator {
			continue
		}
		hardware = append(hardware, info)
	}
	sort.Slice(hardware, func(i, j int) bool {
		return hardware[i].Name < hardware[j].Name
	})

	for _, info := range hardware {
		marker := "up"
		if !info.Operational {
			marker = "down"
		}
		logger.Info().
			Str("backend", info.Name).
			Str("state", marker).
			Int("qubits", info.NumQubits).
			Int("pending_jobs", info.PendingJobs).
			Msg("qpu")
	}

	if len(hardware) == 0 {
		logger.Warn().Msg("no hardware backends visible to this account, check your plan at https://quantum.ibm.com/")
	}
	return hardware, nil
}
