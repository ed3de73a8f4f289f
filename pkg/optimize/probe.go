package optimize

import (
	"cae/pkg/data"
	"cae/pkg/exec"
)

// aggregateProbe bundles an executor with the conservative plan options
// every maintenance probe runs under: CPU device, caching and watchdog off.
type aggregateProbe struct {
	ex *exec.Executor
	co exec.CompilationOptions
	eo exec.ExecutionOptions
}

func newAggregateProbe(ex *exec.Executor) *aggregateProbe {
	return &aggregateProbe{
		ex: ex,
		co: exec.ConservativeCompilationOptions(),
		eo: exec.MaintenanceExecutionOptions(),
	}
}

func (pr *aggregateProbe) run(ctx *exec.ExecCtx, unit *exec.AggUnit, shard *data.Shard,
	parts map[uint64]bool, visitor exec.PartitionVisitor) error {
	return pr.ex.ExecutePerPartition(ctx, unit, shard, pr.co, pr.eo, visitor, parts)
}
