package railrad

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/railrad/internal/conv"
)

// NodeIndexSet is an immutable set of node indices backed by a roaring
// bitmap.
type NodeIndexSet struct {
	bm *roaring.Bitmap
}

// NewNodeIndexSet builds a set from nodes. Duplicates collapse.
func NewNodeIndexSet(nodes ...int) (*NodeIndexSet, error) {
	bm := roaring.New()
	for _, n := range nodes {
		v, err := conv.IntToUint32(n)
		if err != nil {
			return nil, fmt.Errorf("railrad: node %d: %w", n, err)
		}
		bm.Add(v)
	}
	bm.RunOptimize()
	return &NodeIndexSet{bm: bm}, nil
}

// nodeRange returns {0, ..., n-1}.
func nodeRange(n int) *NodeIndexSet {
	bm := roaring.New()
	if n > 0 {
		bm.AddRange(0, uint64(n))
	}
	return &NodeIndexSet{bm: bm}
}

// Contains reports whether node is a member.
func (s *NodeIndexSet) Contains(node int) bool {
	v, err := conv.IntToUint32(node)
	if err != nil {
		return false
	}
	return s.bm.Contains(v)
}

// Len returns the number of members.
func (s *NodeIndexSet) Len() int {
	return int(s.bm.GetCardinality())
}

// Nodes returns the members in ascending order.
func (s *NodeIndexSet) Nodes() []int {
	out := make([]int, 0, s.Len())
	it := s.bm.Iterator()
	for it.HasNext() {
		out = append(out, int(it.Next()))
	}
	return out
}

// firstMissing returns the first element of nodes that is not a member.
func (s *NodeIndexSet) firstMissing(nodes []int) (int, bool) {
	for _, n := range nodes {
		if !s.Contains(n) {
			return n, true
		}
	}
	return 0, false
}

func (s *NodeIndexSet) String() string {
	return fmt.Sprintf("NodeIndexSet(%d)", s.Len())
}
