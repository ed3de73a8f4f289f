package exec

import (
	"cae/pkg/catalog"
	"cae/pkg/data"

	"github.com/matrixorigin/matrixone/pkg/container/types"
)

type AggKind int8

const (
	AggMin AggKind = iota
	AggMax
	AggCount
)

func (k AggKind) String() string {
	switch k {
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	case AggCount:
		return "COUNT"
	}
	panic("not expected")
}

// AggUnit is a single-column aggregate plan. DictKeys projects dictionary
// text columns as their integer keys instead of the decoded strings.
type AggUnit struct {
	Col      *catalog.ColDef
	DictKeys bool
	Targets  []AggKind
}

func NewAggUnit(col *catalog.ColDef, dictKeys bool, targets ...AggKind) *AggUnit {
	if col == nil || len(targets) == 0 {
		panic("not expected")
	}
	return &AggUnit{Col: col, DictKeys: dictKeys, Targets: targets}
}

// computeAggRow folds the unit's targets over one partition. Tombstoned
// rows are invisible; nulls are skipped by MIN/MAX/COUNT alike, so COUNT
// over a nullable column yields its non-null live count.
func computeAggRow(shard *data.Shard, p *data.Partition, unit *AggUnit) ([]interface{}, error) {
	p.RLock()
	defer p.RUnlock()

	if unit.Col.IsDeletedCol() {
		// The marker has no materialized vector; its COUNT is the
		// tombstone-filtered row count.
		row := make([]interface{}, 0, len(unit.Targets))
		for _, t := range unit.Targets {
			if t != AggCount {
				return nil, ErrUnsupportedProbe
			}
			row = append(row, int64(p.LiveRowsLocked()))
		}
		return row, nil
	}

	vec := p.VectorLocked(unit.Col.Idx)
	if vec == nil {
		return nil, ErrMalformedColumn
	}

	var (
		getI   func(uint32) int64
		getU   func(uint32) uint64
		getF32 func(uint32) float32
		getF64 func(uint32) float64
	)
	switch col := vec.Col.(type) {
	case []int8:
		getI = func(row uint32) int64 { return int64(col[row]) }
	case []int16:
		getI = func(row uint32) int64 { return int64(col[row]) }
	case []int32:
		getI = func(row uint32) int64 { return int64(col[row]) }
	case []int64:
		getI = func(row uint32) int64 { return col[row] }
	case []types.Date:
		getI = func(row uint32) int64 { return int64(col[row]) }
	case []types.Datetime:
		getI = func(row uint32) int64 { return int64(col[row]) }
	case []uint8:
		getU = func(row uint32) uint64 { return uint64(col[row]) }
	case []uint16:
		getU = func(row uint32) uint64 { return uint64(col[row]) }
	case []uint32:
		getU = func(row uint32) uint64 { return uint64(col[row]) }
	case []uint64:
		getU = func(row uint32) uint64 { return col[row] }
	case []float32:
		getF32 = func(row uint32) float32 { return col[row] }
	case []float64:
		getF64 = func(row uint32) float64 { return col[row] }
	case *types.Bytes:
		if !unit.DictKeys {
			return nil, ErrUnsupportedProbe
		}
		dict := shard.Dict()
		getI = func(row uint32) int64 {
			return dict.Encode(col.Data[col.Offsets[row] : col.Offsets[row]+col.Lengths[row]])
		}
	default:
		return nil, ErrMalformedColumn
	}

	tomb := p.TombstonesLocked()
	physical := p.PhysicalRowsLocked()
	cnt := int64(0)
	var minI, maxI int64
	var minU, maxU uint64
	var minF32, maxF32 float32
	var minF64, maxF64 float64
	for row := uint32(0); row < physical; row++ {
		if tomb.Contains(row) {
			continue
		}
		if data.IsNullAt(vec, row) {
			continue
		}
		switch {
		case getI != nil:
			v := getI(row)
			if cnt == 0 || v < minI {
				minI = v
			}
			if cnt == 0 || v > maxI {
				maxI = v
			}
		case getU != nil:
			v := getU(row)
			if cnt == 0 || v < minU {
				minU = v
			}
			if cnt == 0 || v > maxU {
				maxU = v
			}
		case getF32 != nil:
			v := getF32(row)
			if cnt == 0 || v < minF32 {
				minF32 = v
			}
			if cnt == 0 || v > maxF32 {
				maxF32 = v
			}
		case getF64 != nil:
			v := getF64(row)
			if cnt == 0 || v < minF64 {
				minF64 = v
			}
			if cnt == 0 || v > maxF64 {
				maxF64 = v
			}
		}
		cnt++
	}

	row := make([]interface{}, 0, len(unit.Targets))
	for _, t := range unit.Targets {
		switch t {
		case AggCount:
			row = append(row, cnt)
		case AggMin:
			row = append(row, pick(cnt, getI, getU, getF32, getF64, minI, minU, minF32, minF64))
		case AggMax:
			row = append(row, pick(cnt, getI, getU, getF32, getF64, maxI, maxU, maxF32, maxF64))
		default:
			panic("not expected")
		}
	}
	return row, nil
}

// pick returns the family-typed extremum, or nil when no value survived
// the tombstone and null filters.
func pick(cnt int64, getI func(uint32) int64, getU func(uint32) uint64,
	getF32 func(uint32) float32, getF64 func(uint32) float64,
	vi int64, vu uint64, vf32 float32, vf64 float64) interface{} {
	if cnt == 0 {
		return nil
	}
	switch {
	case getI != nil:
		return vi
	case getU != nil:
		return vu
	case getF32 != nil:
		return vf32
	case getF64 != nil:
		return vf64
	}
	panic("not expected")
}
