package exec

import "fmt"

type DeviceType int8

const (
	DeviceCPU DeviceType = iota
	DeviceAccel
)

func (t DeviceType) String() string {
	switch t {
	case DeviceCPU:
		return "CPU"
	case DeviceAccel:
		return "ACCEL"
	}
	panic("not expected")
}

type OptLevel int8

const (
	OptDefault OptLevel = iota
	OptReductionJIT
)

type CompilationOptions struct {
	Device        DeviceType
	HoistLiterals bool
	OptLevel      OptLevel
	WithWatchdog  bool
}

// ConservativeCompilationOptions is the plan shape used by maintenance
// passes: CPU device, no literal hoisting, no watchdog.
func ConservativeCompilationOptions() CompilationOptions {
	return CompilationOptions{
		Device:   DeviceCPU,
		OptLevel: OptDefault,
	}
}

type ExecutionOptions struct {
	OutputColumnar    bool
	AllowLoopJoins    bool
	EnableResultCache bool
	WithWatchdog      bool
	MaxRows           uint64
}

// MaintenanceExecutionOptions disables result caching and the watchdog so
// a stats probe never pollutes query caches or trips runtime limits.
func MaintenanceExecutionOptions() ExecutionOptions {
	return ExecutionOptions{}
}

func (o CompilationOptions) String() string {
	return fmt.Sprintf("CO[device=%s,hoist=%v,opt=%d]", o.Device, o.HoistLiterals, o.OptLevel)
}
