package report

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("classifyHeader", func() {
	DescribeTable("applies the first matching rule",
		func(line, rule string) {
			Expect(classifyHeader(line)).To(Equal(rule))
		},
		Entry("numbered with dot", "1. Boil water", "numbered"),
		Entry("numbered with paren", "2) Serve warm", "numbered"),
		Entry("numbered beats emphasis", "3. **Stew**", "numbered"),
		Entry("leading emphasis", "**Bold** start of a line", "emphasis"),
		Entry("upper case label", "INGREDIENTS:", "upper_label"),
		Entry("upper case label with text", "TIP: freeze bread", "upper_label"),
		Entry("title label", "Storage Tips:", "title_label"),
		Entry("title phrase", "Pantry Staples", "title_phrase"),
		Entry("markdown heading", "## Serving Notes", "title_phrase"),
		Entry("keyword", "what about leftover rice", "keyword"),
		Entry("keyword in any case", "use these ITEMS first", "keyword"),
		Entry("plain sentence", "Hello world", ""),
		Entry("long title case line", "Title Case Line That Is Way Too Long To Count", ""),
		Entry("long keyword line", "this sentence mentions a recipe but it is far too long to be a header", ""),
		Entry("bullet", "- rice", ""),
	)
})

var _ = Describe("headerName", func() {
	DescribeTable("strips layout markers",
		func(line, want string) {
			Expect(headerName(line)).To(Equal(want))
		},
		Entry("numbering", "1. Fried Rice", "Fried Rice"),
		Entry("emphasis and colon", "**Storage:**", "Storage"),
		Entry("heading marks", "## Serving Notes", "Serving Notes"),
		Entry("numbered emphasis", "2) **Soup**:", "Soup"),
		Entry("nothing left", "**", "**"),
	)
})

var _ = Describe("ExtractHeuristic", func() {
	var (
		input    string
		sections []Section
	)

	JustBeforeEach(func() {
		sections = ExtractHeuristic(input)
	})

	When("the text has no headers", func() {
		BeforeEach(func() {
			input = "Hello world"
		})

		It("returns an introduction", func() {
			Expect(sections).To(Equal([]Section{{Name: "Introduction", Details: "Hello world"}}))
		})
	})

	When("the text mixes body lines and headers", func() {
		BeforeEach(func() {
			input = "Quick ideas for tonight\nPantry Staples\n- rice\n- beans\n\n1. Fried Rice\nUse day-old rice."
		})

		It("opens a section at every header", func() {
			Expect(sections).To(Equal([]Section{
				{Name: "Introduction", Details: "Quick ideas for tonight"},
				{Name: "Pantry Staples", Details: "• rice\n• beans"},
				{Name: "Fried Rice", Details: "Use day-old rice."},
			}))
		})
	})

	When("a header uses emphasis and a colon", func() {
		BeforeEach(func() {
			input = "**Storage:**\nKeep cold."
		})

		It("strips them from the name", func() {
			Expect(sections).To(Equal([]Section{{Name: "Storage", Details: "Keep cold."}}))
		})
	})

	When("a header has no body", func() {
		BeforeEach(func() {
			input = "INGREDIENTS:"
		})

		It("returns it with empty details", func() {
			Expect(sections).To(Equal([]Section{{Name: "INGREDIENTS", Details: ""}}))
		})
	})

	When("blank lines separate body lines", func() {
		BeforeEach(func() {
			input = "first line here\n\n\nsecond line here"
		})

		It("skips them", func() {
			Expect(sections).To(Equal([]Section{{Name: "Introduction", Details: "first line here\nsecond line here"}}))
		})
	})

	When("body lines are indented", func() {
		BeforeEach(func() {
			input = "Quick ideas for tonight\n    soak the rice first\n  - drain it well"
		})

		It("keeps the indentation of continuation lines", func() {
			Expect(sections).To(Equal([]Section{
				{Name: "Introduction", Details: "Quick ideas for tonight\n    soak the rice first\n• drain it well"},
			}))
		})
	})

	When("the text is blank", func() {
		BeforeEach(func() {
			input = " \n\t\n"
		})

		It("returns nothing", func() {
			Expect(sections).To(BeEmpty())
		})
	})
})

var _ = Describe("Section.Lines", func() {
	It("marks bullet lines", func() {
		s := Section{Name: "Dairy", Details: "• Milk\n\nUse by Friday"}
		Expect(s.Lines()).To(Equal([]Line{
			{Text: "Milk", Bullet: true},
			{Text: ""},
			{Text: "Use by Friday"},
		}))
	})

	It("returns nothing for empty details", func() {
		Expect(Section{Name: "Empty"}.Lines()).To(BeNil())
	})
})

var _ = Describe("RenderPDF", func() {
	It("produces a PDF document", func() {
		data, err := RenderPDF("Inventory Report", []Section{
			{Name: "Protein", Details: "• Chicken breast\nUse within two days"},
			{Name: "Additional Tips", Details: "Freeze what you cannot use."},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data[:5])).To(Equal("%PDF-"))
	})
})
