package stats

import "fmt"

// Tier scopes a statistics update. TierDurable is the authoritative,
// checkpoint-backed copy; the memory tiers hold per-level overlays that can
// be refreshed without forcing a checkpoint.
type Tier uint8

const (
	TierDurable Tier = iota
	TierCPU
	TierAccel
)

var tierNames = map[Tier]string{
	TierDurable: "DURABLE",
	TierCPU:     "CPU",
	TierAccel:   "ACCEL",
}

func (t Tier) String() string { return tierNames[t] }

// ChunkStats is the zone map of one column within one partition. For
// dictionary-encoded text, Min and Max bound the integer dictionary keys,
// not lexicographic order. A missing ChunkStats entry means "unknown",
// never "no nulls".
type ChunkStats struct {
	Min      interface{}
	Max      interface{}
	HasNulls bool
}

func (cs ChunkStats) String() string {
	return fmt.Sprintf("[min=%v,max=%v,nulls=%v]", cs.Min, cs.Max, cs.HasNulls)
}
