package invoice

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/darehype/ai-invoice-app/internal/gemini"
)

var _ = Describe("DecodeRecord", func() {
	It("decodes a bare JSON object", func() {
		rec, err := DecodeRecord(extractionResponse)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.InvoiceNumber).To(Equal("INV-1"))
		Expect(rec.BilledTo).To(Equal("Acme Corp"))
		Expect(rec.LineItems).To(HaveLen(2))
		Expect(rec.LineItems[0].Quantity).To(Equal(2.0))
		Expect(rec.LineItems[0].UnitPrice).To(Equal(5.0))
	})

	It("strips markdown code fences", func() {
		rec, err := DecodeRecord("```json\n" + extractionResponse + "\n```")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.InvoiceNumber).To(Equal("INV-1"))
	})

	It("narrows to the JSON object inside surrounding prose", func() {
		rec, err := DecodeRecord("Here is the invoice:\n" + extractionResponse + "\nLet me know if you need more.")
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.InvoiceNumber).To(Equal("INV-1"))
	})

	It("defaults categories to empty when the model omits them", func() {
		rec, err := DecodeRecord(extractionResponse)
		Expect(err).NotTo(HaveOccurred())
		for _, item := range rec.LineItems {
			Expect(item.Category).To(Equal(""))
		}
	})

	It("keeps a category the model volunteers", func() {
		rec, err := DecodeRecord(`{
			"invoiceNumber": "INV-9",
			"lineItems": [
				{"description": "Taxi", "quantity": 1, "unitPrice": 20, "total": 20, "category": "Travel"}
			],
			"total": 20
		}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.LineItems[0].Category).To(Equal("Travel"))
	})

	It("accepts a record missing optional metadata", func() {
		rec, err := DecodeRecord(`{
			"invoiceNumber": "INV-9",
			"lineItems": [
				{"description": "Taxi", "quantity": 1, "unitPrice": 20, "total": 20}
			]
		}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(rec.InvoiceDate).To(BeEmpty())
		Expect(rec.Total).To(BeZero())
	})

	It("rejects text with no JSON object", func() {
		_, err := DecodeRecord("I was unable to read the document.")
		var malformed *gemini.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})

	It("rejects a record without line items", func() {
		_, err := DecodeRecord(`{"invoiceNumber": "INV-9", "total": 20}`)
		var malformed *gemini.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})

	It("rejects a record with an empty line item list", func() {
		_, err := DecodeRecord(`{"invoiceNumber": "INV-9", "lineItems": [], "total": 20}`)
		var malformed *gemini.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})

	It("rejects mis-typed amounts", func() {
		_, err := DecodeRecord(`{
			"lineItems": [
				{"description": "Taxi", "quantity": 1, "unitPrice": "twenty", "total": 20}
			]
		}`)
		var malformed *gemini.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})
})

var _ = Describe("DecodeCategories", func() {
	It("decodes a flat description-to-category object", func() {
		categories, err := DecodeCategories(`{"Widget": "Equipment", "Gadget": "Office Supplies"}`)
		Expect(err).NotTo(HaveOccurred())
		Expect(categories).To(Equal(map[string]string{
			"Widget": "Equipment",
			"Gadget": "Office Supplies",
		}))
	})

	It("strips markdown code fences", func() {
		categories, err := DecodeCategories("```json\n{\"Widget\": \"Equipment\"}\n```")
		Expect(err).NotTo(HaveOccurred())
		Expect(categories).To(HaveKeyWithValue("Widget", "Equipment"))
	})

	It("rejects text with no JSON object", func() {
		_, err := DecodeCategories("Equipment and Office Supplies")
		var malformed *gemini.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})

	It("rejects non-string category values", func() {
		_, err := DecodeCategories(`{"Widget": 7}`)
		var malformed *gemini.MalformedResponseError
		Expect(errors.As(err, &malformed)).To(BeTrue())
	})
})
