package data

import (
	"github.com/RoaringBitmap/roaring"
	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/matrixorigin/matrixone/pkg/container/nulls"
	"github.com/matrixorigin/matrixone/pkg/container/types"
	"github.com/matrixorigin/matrixone/pkg/container/vector"
)

// IsNullAt reports whether the vector holds a null at row.
func IsNullAt(vec *vector.Vector, row uint32) bool {
	if vec.Nsp == nil || vec.Nsp.Np == nil {
		return false
	}
	return vec.Nsp.Np.Contains(uint64(row))
}

// compactVector rebuilds vec without the tombstoned rows, remapping the
// null bitmap onto the surviving positions.
func compactVector(vec *vector.Vector, tombstones *roaring.Bitmap, physical uint32) (*vector.Vector, error) {
	res := &vector.Vector{Typ: vec.Typ}
	np := &roaring64.Bitmap{}
	markNull := func(newRow uint32) { np.Add(uint64(newRow)) }

	kept := uint32(0)
	switch col := vec.Col.(type) {
	case []int8:
		out := make([]int8, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []int16:
		out := make([]int16, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []int32:
		out := make([]int32, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []int64:
		out := make([]int64, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []uint8:
		out := make([]uint8, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []uint16:
		out := make([]uint16, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []uint32:
		out := make([]uint32, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []uint64:
		out := make([]uint64, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []float32:
		out := make([]float32, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []float64:
		out := make([]float64, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []types.Date:
		out := make([]types.Date, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case []types.Datetime:
		out := make([]types.Datetime, 0, len(col))
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out = append(out, col[row])
			kept++
		}
		res.Col = out
	case *types.Bytes:
		out := &types.Bytes{
			Data:    make([]byte, 0, len(col.Data)),
			Offsets: make([]uint32, 0, len(col.Offsets)),
			Lengths: make([]uint32, 0, len(col.Lengths)),
		}
		for row := uint32(0); row < physical; row++ {
			if tombstones.Contains(row) {
				continue
			}
			if IsNullAt(vec, row) {
				markNull(kept)
			}
			out.Offsets = append(out.Offsets, uint32(len(out.Data)))
			out.Data = append(out.Data, col.Data[col.Offsets[row]:col.Offsets[row]+col.Lengths[row]]...)
			out.Lengths = append(out.Lengths, col.Lengths[row])
			kept++
		}
		res.Col = out
	default:
		return nil, ErrMalformedVector
	}

	if !np.IsEmpty() {
		res.Nsp = &nulls.Nulls{Np: np}
	}
	return res, nil
}
