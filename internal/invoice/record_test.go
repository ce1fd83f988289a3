package invoice

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Record", func() {
	Describe("Clone", func() {
		It("copies line items so edits do not leak back", func() {
			rec := testRecord()
			clone := rec.Clone()
			clone.LineItems[0].Category = "Travel"
			clone.InvoiceNumber = "INV-2"

			Expect(rec.LineItems[0].Category).To(Equal(""))
			Expect(rec.InvoiceNumber).To(Equal("INV-1"))
		})

		It("survives a nil receiver", func() {
			var rec *Record
			Expect(rec.Clone()).To(BeNil())
		})
	})
})

var _ = Describe("FormatCurrency", func() {
	It("prefixes the symbol and keeps two decimals", func() {
		Expect(FormatCurrency("$", 10.0)).To(Equal("$10.00"))
		Expect(FormatCurrency("€", 1234.5)).To(Equal("€1234.50"))
	})

	It("works with currency codes", func() {
		Expect(FormatCurrency("USD ", 99.999)).To(Equal("USD 100.00"))
	})

	It("renders a bare amount when the currency is unknown", func() {
		Expect(FormatCurrency("", 13.0)).To(Equal("13.00"))
	})
})
