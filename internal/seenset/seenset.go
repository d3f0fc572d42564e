// Package seenset is the compressed integer set stored in membership rows.
// It wraps a roaring bitmap so that runs of consecutive dense ids cost a
// few bytes and membership/union/difference stay sub-linear.
package seenset

import (
	"fmt"

	roaring "github.com/RoaringBitmap/roaring"
)

type Set struct {
	bm *roaring.Bitmap
}

func New(ids ...uint32) *Set {
	return &Set{bm: roaring.BitmapOf(ids...)}
}

// FromBytes decodes a serialized set. Nil or empty input is the empty set.
func FromBytes(b []byte) (*Set, error) {
	if len(b) == 0 {
		return New(), nil
	}
	bm := roaring.New()
	if err := bm.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("decode seen set: %w", err)
	}
	return &Set{bm: bm}, nil
}

// Bytes run-compacts the set and serializes it in the portable roaring format.
func (s *Set) Bytes() ([]byte, error) {
	s.bm.RunOptimize()
	b, err := s.bm.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("encode seen set: %w", err)
	}
	return b, nil
}

func (s *Set) Contains(id uint32) bool { return s.bm.Contains(id) }

// Add inserts id and reports whether it was absent.
func (s *Set) Add(id uint32) bool { return s.bm.CheckedAdd(id) }

// AddMany inserts ids and returns how many were new.
func (s *Set) AddMany(ids []uint32) int {
	added := 0
	for _, id := range ids {
		if s.bm.CheckedAdd(id) {
			added++
		}
	}
	return added
}

// UnionWith adds every member of o to s.
func (s *Set) UnionWith(o *Set) {
	if o == nil {
		return
	}
	s.bm.Or(o.bm)
}

func (s *Set) Union(o *Set) *Set {
	if o == nil {
		return s.Clone()
	}
	return &Set{bm: roaring.Or(s.bm, o.bm)}
}

// Difference returns the members of s absent from o.
func (s *Set) Difference(o *Set) *Set {
	if o == nil {
		return s.Clone()
	}
	return &Set{bm: roaring.AndNot(s.bm, o.bm)}
}

func (s *Set) IsSubsetOf(o *Set) bool {
	if o == nil {
		return s.IsEmpty()
	}
	return roaring.AndNot(s.bm, o.bm).IsEmpty()
}

func (s *Set) Cardinality() uint64 { return s.bm.GetCardinality() }

func (s *Set) IsEmpty() bool { return s.bm.IsEmpty() }

func (s *Set) ToSlice() []uint32 { return s.bm.ToArray() }

func (s *Set) Clone() *Set { return &Set{bm: s.bm.Clone()} }
