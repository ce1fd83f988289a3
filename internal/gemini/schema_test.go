package gemini

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/google/generative-ai-go/genai"
)

func propertyNames(props map[string]any) []string {
	names := make([]string, 0, len(props))
	for name := range props {
		names = append(names, name)
	}
	return names
}

func genaiPropertyNames(schema *genai.Schema) []string {
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	return names
}

var _ = Describe("record schemas", func() {
	It("keeps the request and acceptance property trees in lockstep", func() {
		request := recordSchema()
		acceptance := recordJSONSchema()

		acceptProps := acceptance["properties"].(map[string]any)
		Expect(propertyNames(acceptProps)).To(ConsistOf(genaiPropertyNames(request)))

		acceptItems := acceptProps["lineItems"].(map[string]any)["items"].(map[string]any)
		requestItems := request.Properties["lineItems"].Items
		Expect(propertyNames(acceptItems["properties"].(map[string]any))).To(ConsistOf(genaiPropertyNames(requestItems)))
	})

	It("requires the same line item fields on both sides", func() {
		acceptance := recordJSONSchema()
		acceptItems := acceptance["properties"].(map[string]any)["lineItems"].(map[string]any)["items"].(map[string]any)

		required := make([]string, 0)
		for _, r := range acceptItems["required"].([]any) {
			required = append(required, r.(string))
		}
		Expect(required).To(ConsistOf(recordSchema().Properties["lineItems"].Items.Required))
	})

	It("accepts a reply as long as it has line items", func() {
		Expect(recordJSONSchema()["required"]).To(Equal([]any{"lineItems"}))
	})
})

var _ = Describe("ValidateRecordJSON", func() {
	var (
		raw string
		err error
	)

	JustBeforeEach(func() {
		err = ValidateRecordJSON([]byte(raw))
	})

	When("the response matches the record shape", func() {
		BeforeEach(func() {
			raw = `{
				"invoiceNumber": "INV-1",
				"invoiceDate": "2024-05-01",
				"billedTo": "Acme Corp",
				"from": "Widgets Inc",
				"currency": "$",
				"lineItems": [
					{"description": "Widget", "quantity": 2, "unitPrice": 5, "total": 10}
				],
				"subtotal": 10,
				"tax": 0,
				"total": 10
			}`
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("metadata fields are missing", func() {
		BeforeEach(func() {
			raw = `{
				"invoiceNumber": "INV-1",
				"currency": "$",
				"lineItems": [
					{"description": "Widget", "quantity": 2, "unitPrice": 5, "total": 10}
				],
				"subtotal": 10,
				"tax": 0,
				"total": 10
			}`
		})

		It("still accepts the record", func() {
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("lineItems is missing", func() {
		BeforeEach(func() {
			raw = `{"invoiceNumber": "INV-1", "total": 10}`
		})

		It("fails with MalformedResponseError", func() {
			var malformed *MalformedResponseError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	})

	When("lineItems is empty", func() {
		BeforeEach(func() {
			raw = `{"lineItems": []}`
		})

		It("fails with MalformedResponseError", func() {
			var malformed *MalformedResponseError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	})

	When("a monetary field is a string", func() {
		BeforeEach(func() {
			raw = `{"lineItems": [{"description": "Widget", "quantity": 2, "unitPrice": "5", "total": 10}]}`
		})

		It("fails with MalformedResponseError", func() {
			var malformed *MalformedResponseError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	})

	When("the response is not JSON at all", func() {
		BeforeEach(func() {
			raw = `Sorry, I cannot read this document.`
		})

		It("fails with MalformedResponseError", func() {
			var malformed *MalformedResponseError
			Expect(errors.As(err, &malformed)).To(BeTrue())
		})
	})
})
