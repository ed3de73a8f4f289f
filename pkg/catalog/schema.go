package catalog

import (
	"fmt"

	"github.com/matrixorigin/matrixone/pkg/container/types"
)

// DeletedAttrName is the hidden soft-delete marker column. Rows carrying it
// are logically removed but still physically present until vacuumed.
const DeletedAttrName = "$deleted"

type ColDef struct {
	Name   string
	Idx    int
	Type   types.Type
	Dict   bool
	Hidden bool
}

func (def *ColDef) IsDeletedCol() bool {
	return def.Hidden && def.Name == DeletedAttrName
}

func (def *ColDef) IsString() bool {
	return def.Type.Oid == types.T_char || def.Type.Oid == types.T_varchar
}

func (def *ColDef) String() string {
	return fmt.Sprintf("COL[name=%s,idx=%d,oid=%d,dict=%v]", def.Name, def.Idx, def.Type.Oid, def.Dict)
}

type Schema struct {
	Name             string
	ColDefs          []*ColDef
	PhyDelIdx        int
	ShardCnt         uint16
	PartitionMaxRows uint32
}

func NewEmptySchema(name string) *Schema {
	return &Schema{
		Name:             name,
		ColDefs:          make([]*ColDef, 0),
		PhyDelIdx:        -1,
		PartitionMaxRows: 10000,
	}
}

func (s *Schema) AppendCol(name string, typ types.Type) *ColDef {
	def := &ColDef{
		Name: name,
		Idx:  len(s.ColDefs),
		Type: typ,
	}
	s.ColDefs = append(s.ColDefs, def)
	return def
}

func (s *Schema) AppendDictCol(name string, typ types.Type) *ColDef {
	def := s.AppendCol(name, typ)
	def.Dict = true
	return def
}

// AppendDeletedCol registers the hidden soft-delete marker. At most one per
// schema.
func (s *Schema) AppendDeletedCol() *ColDef {
	if s.PhyDelIdx >= 0 {
		panic("not expected")
	}
	def := s.AppendCol(DeletedAttrName, types.Type{Oid: types.T_int8, Size: 1})
	def.Hidden = true
	s.PhyDelIdx = def.Idx
	return def
}

func (s *Schema) HasDeletedCol() bool { return s.PhyDelIdx >= 0 }

func (s *Schema) DeletedCol() *ColDef {
	if s.PhyDelIdx < 0 {
		return nil
	}
	return s.ColDefs[s.PhyDelIdx]
}

// VisibleCols excludes hidden columns such as the soft-delete marker.
func (s *Schema) VisibleCols() []*ColDef {
	defs := make([]*ColDef, 0, len(s.ColDefs))
	for _, def := range s.ColDefs {
		if def.Hidden {
			continue
		}
		defs = append(defs, def)
	}
	return defs
}

func (s *Schema) Types() []types.Type {
	tys := make([]types.Type, len(s.ColDefs))
	for i, def := range s.ColDefs {
		tys[i] = def.Type
	}
	return tys
}

func (s *Schema) String() string {
	return fmt.Sprintf("SCHEMA[name=%s,cols=%d,shards=%d,del=%d]", s.Name, len(s.ColDefs), s.ShardCnt, s.PhyDelIdx)
}

func MockSchema(colCnt int) *Schema {
	s := NewEmptySchema("mock")
	for i := 0; i < colCnt; i++ {
		s.AppendCol(fmt.Sprintf("mock_%d", i), types.Type{Oid: types.T_int32, Size: 4})
	}
	return s
}
