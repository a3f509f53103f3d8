package membership_test

import (
	"clubhouse/domain/membership"

	"github.com/fundwit/go-commons/types"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Diff", func() {
	It("should compute both directions of the set difference", func() {
		toAdd, toRemove := membership.Diff([]types.ID{2, 3, 4}, []types.ID{1, 2, 3})
		Expect(toAdd).To(Equal([]types.ID{1}))
		Expect(toRemove).To(Equal([]types.ID{4}))
	})

	It("should yield empty deltas for identical sets", func() {
		toAdd, toRemove := membership.Diff([]types.ID{1, 2}, []types.ID{2, 1})
		Expect(toAdd).To(BeEmpty())
		Expect(toRemove).To(BeEmpty())
	})

	It("should treat empty current as all additions", func() {
		toAdd, toRemove := membership.Diff(nil, []types.ID{1, 2})
		Expect(toAdd).To(Equal([]types.ID{1, 2}))
		Expect(toRemove).To(BeEmpty())
	})

	It("should treat empty target as all removals", func() {
		toAdd, toRemove := membership.Diff([]types.ID{1, 2}, nil)
		Expect(toAdd).To(BeEmpty())
		Expect(toRemove).To(Equal([]types.ID{1, 2}))
	})

	It("should collapse duplicate ids in either input", func() {
		toAdd, toRemove := membership.Diff([]types.ID{2, 2, 3}, []types.ID{1, 1, 2})
		Expect(toAdd).To(Equal([]types.ID{1}))
		Expect(toRemove).To(Equal([]types.ID{3}))
	})
})
