package common_test

import (
	"clubhouse/common"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Errors", func() {
	Describe("ErrBadParam", func() {
		Describe("Error", func() {
			It("should return default message if cause is nil", func() {
				err := common.ErrBadParam{}
				Expect(err.Error()).To(Equal("common.bad_param"))
			})
			It("should invoke the Error() function of cause property if cause is not nil", func() {
				err := common.ErrBadParam{Cause: errors.New("some cause")}
				Expect(err.Error()).To(Equal("some cause"))
			})
		})

		Describe("Respond", func() {
			It("should respond with bad request status", func() {
				err := common.ErrBadParam{Cause: errors.New("some cause")}
				detail := err.Respond()
				Expect(detail.Status).To(Equal(http.StatusBadRequest))
				Expect(detail.Code).To(Equal("common.bad_param"))
				Expect(detail.Message).To(Equal("some cause"))
				Expect(detail.Data).To(BeNil())
			})
		})
	})
})
