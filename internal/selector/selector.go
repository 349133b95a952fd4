// Package selector picks one hardware backend for execution.
package selector

import (
	"context"
	"fmt"
	"sort"

	"github.com/danmuck/qpuctl/internal/runtime"
	"github.com/rs/zerolog/log"
)

// Select filters candidates to operational hardware with at least minQubits
// qubits, then applies the preference list as a strict override before
// falling back to the shortest queue. Queue-depth ties break lexicographically
// by name so the pick is deterministic.
func Select(candidates []runtime.BackendInfo, preferred []string, minQubits int) (runtime.BackendInfo, error) {
	survivors := make([]runtime.BackendInfo, 0, len(candidates))
	for _, info := range candidates {
		if info.Simulator || !info.Operational || info.NumQubits < minQubits {
			continue
		}
		survivors = append(survivors, info)
	}
	if len(survivors) == 0 {
		return runtime.BackendInfo{}, fmt.Errorf(
			"%w: no operational QPU with at least %d qubits (check your access at https://quantum.ibm.com/)",
			runtime.ErrSelection, minQubits,
		)
	}

	for _, name := range preferred {
		for _, info := range survivors {
			if info.Name == name {
				log.Info().
					Str("backend", info.Name).
					Int("qubits", info.NumQubits).
					Int("pending_jobs", info.PendingJobs).
					Msg("selected preferred qpu")
				return info, nil
			}
		}
	}

	sort.Slice(survivors, func(i, j int) bool {
		if survivors[i].PendingJobs != survivors[j].PendingJobs {
			return survivors[i].PendingJobs < survivors[j].PendingJobs
		}
		return survivors[i].Name < survivors[j].Name
	})
	best := survivors[0]
	log.Info().
		Str("backend", best.Name).
		Int("qubits", best.NumQubits).
		Int("pending_jobs", best.PendingJobs).
		Msg("selected qpu with shortest queue")
	return best, nil
}

// PickBackend enumerates the account's backends and selects one.
func PickBackend(ctx context.Context, client *runtime.Client, preferred []string, minQubits int) (runtime.BackendInfo, error) {
	candidates, err := client.Backends(ctx)
	if err != nil {
		return runtime.BackendInfo{}, fmt.Errorf("select backend: %w", err)
	}
	return Select(candidates, preferred, minQubits)
}
