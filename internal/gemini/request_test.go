package gemini

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ExtractionRequest", func() {
	var (
		files []FilePart
		req   Request
	)

	BeforeEach(func() {
		files = []FilePart{
			{MIMEType: "image/png", Data: []byte("page-1")},
			{MIMEType: "image/png", Data: []byte("page-2")},
		}
	})

	JustBeforeEach(func() {
		req = ExtractionRequest(files)
	})

	It("carries every encoded file part", func() {
		Expect(req.Files).To(Equal(files))
	})

	It("constrains the output to the record schema", func() {
		Expect(req.Schema).NotTo(BeNil())
		Expect(req.JSONOutput).To(BeTrue())
	})

	It("instructs the model to identify the currency", func() {
		Expect(req.Instruction).To(ContainSubstring("currency"))
	})

	It("instructs the model to coerce monetary fields to numbers", func() {
		Expect(req.Instruction).To(ContainSubstring("must be numbers"))
	})
})

var _ = Describe("CategoryRequest", func() {
	var req Request

	JustBeforeEach(func() {
		req = CategoryRequest("Flight to Berlin")
	})

	It("names the line item", func() {
		Expect(req.Instruction).To(ContainSubstring(`"Flight to Berlin"`))
	})

	It("asks for only the label", func() {
		Expect(req.Instruction).To(ContainSubstring("Respond with only the category label"))
	})

	It("is free text with no schema or file parts", func() {
		Expect(req.JSONOutput).To(BeFalse())
		Expect(req.Schema).To(BeNil())
		Expect(req.Files).To(BeEmpty())
	})
})

var _ = Describe("BulkCategoryRequest", func() {
	var req Request

	JustBeforeEach(func() {
		req = BulkCategoryRequest([]string{"Widget", "Gadget"})
	})

	It("lists every description in order", func() {
		Expect(req.Instruction).To(ContainSubstring("- Widget\n- Gadget"))
	})

	It("asks for a JSON object keyed by description", func() {
		Expect(req.Instruction).To(ContainSubstring("JSON object mapping each description"))
	})

	It("requests JSON output without a schema constraint", func() {
		Expect(req.JSONOutput).To(BeTrue())
		Expect(req.Schema).To(BeNil())
	})
})

var _ = Describe("EmailRequest", func() {
	var (
		intent EmailIntent
		params EmailParams
		req    Request
		err    error
	)

	BeforeEach(func() {
		params = EmailParams{
			Vendor:         "Widgets Inc",
			InvoiceNumber:  "INV-1",
			TotalFormatted: "$10.00",
			DueDate:        "2024-06-01",
		}
	})

	JustBeforeEach(func() {
		req, err = EmailRequest(intent, params)
	})

	When("the intent is payment approval", func() {
		BeforeEach(func() {
			intent = EmailPaymentApproval
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("addresses an internal approver with the invoice details", func() {
			Expect(req.Instruction).To(ContainSubstring("internal approver"))
			Expect(req.Instruction).To(ContainSubstring("Widgets Inc"))
			Expect(req.Instruction).To(ContainSubstring("INV-1"))
			Expect(req.Instruction).To(ContainSubstring("$10.00"))
			Expect(req.Instruction).To(ContainSubstring("2024-06-01"))
		})

		It(`signs off with "Best regards,"`, func() {
			Expect(req.Instruction).To(ContainSubstring(`"Best regards,"`))
		})

		When("the invoice has no due date", func() {
			BeforeEach(func() {
				params.DueDate = ""
			})

			It("marks the due date as not specified", func() {
				Expect(req.Instruction).To(ContainSubstring("not specified"))
			})
		})
	})

	When("the intent is a vendor query", func() {
		BeforeEach(func() {
			intent = EmailVendorQuery
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("carries the invoice details", func() {
			Expect(req.Instruction).To(ContainSubstring("Widgets Inc"))
			Expect(req.Instruction).To(ContainSubstring("INV-1"))
			Expect(req.Instruction).To(ContainSubstring("$10.00"))
		})

		It("leaves a literal placeholder for the question", func() {
			Expect(req.Instruction).To(ContainSubstring("[YOUR QUESTION HERE]"))
		})

		It(`signs off with "Thank you,"`, func() {
			Expect(req.Instruction).To(ContainSubstring(`"Thank you,"`))
		})
	})

	When("the intent is unknown", func() {
		BeforeEach(func() {
			intent = EmailIntent("newsletter")
		})

		It("returns the error", func() {
			Expect(err).To(HaveOccurred())
		})
	})
})
