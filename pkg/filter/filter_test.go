package filter

import (
	"testing"

	"github.com/grailbio/xsra/internal/sra"
)

func seg(sid int, typ sra.SegType, length int) sra.Segment {
	return sra.Segment{SID: sid, Type: typ, Seq: make([]byte, length), Qual: make([]byte, length)}
}

func TestAcceptOrder(t *testing.T) {
	cases := []struct {
		name   string
		spec   Spec
		seg    sra.Segment
		accept bool
		reason Reason
	}{
		{"no filters accepts everything", Spec{}, seg(0, sra.Biological, 5), true, None},
		{"include set excludes other sid", Spec{Include: map[int]bool{2: true}}, seg(0, sra.Biological, 5), false, Include},
		{"include set keeps listed sid", Spec{Include: map[int]bool{0: true}}, seg(0, sra.Biological, 5), true, None},
		{"skip technical drops technical", Spec{SkipTechnical: true}, seg(0, sra.Technical, 5), false, Type},
		{"skip technical keeps biological", Spec{SkipTechnical: true}, seg(0, sra.Biological, 5), true, None},
		{"min len drops short segment", Spec{MinLen: 10}, seg(0, sra.Biological, 5), false, Size},
		{"min len zero accepts empty segment", Spec{MinLen: 0}, seg(0, sra.Biological, 0), true, None},
		{"include checked before type", Spec{Include: map[int]bool{1: true}, SkipTechnical: true}, seg(0, sra.Technical, 5), false, Include},
		{"type checked before size", Spec{SkipTechnical: true, MinLen: 100}, seg(0, sra.Technical, 5), false, Type},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			accept, reason := c.spec.Accept(c.seg)
			if accept != c.accept || reason != c.reason {
				t.Errorf("Accept() = (%v, %v), want (%v, %v)", accept, reason, c.accept, c.reason)
			}
		})
	}
}
