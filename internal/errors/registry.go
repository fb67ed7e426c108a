package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Usage Errors (R001-R099)
	// ============================================

	"R001": {
		Category:   CategoryUsage,
		Message:    "Value is not reactive",
		Suggestion: "Build the value with reactive.Graph.NewBuilder or embed *reactive.Node",
	},
	"R002": {
		Category:   CategoryUsage,
		Message:    "Node already enabled",
		Suggestion: "Call Build once per Builder",
	},
	"R003": {
		Category:   CategoryUsage,
		Message:    "Render function missing",
		Suggestion: "Pass a render function with Builder.Render",
	},
	"R004": {
		Category:   CategoryUsage,
		Message:    "Duplicate named anchor",
		Suggestion: "Give each node its own slot name",
	},
	"R005": {
		Category:   CategoryUsage,
		Message:    "Unlock of a node that is not locked",
		Suggestion: "Pair every Unlock with a preceding Lock",
	},
	"R006": {
		Category: CategoryUsage,
		Message:  "Unlock during construction",
	},
	"R007": {
		Category:   CategoryUsage,
		Message:    "Cyclic rendering",
		Suggestion: "A render function must not read or invalidate the node it renders",
	},
	"R008": {
		Category:   CategoryUsage,
		Message:    "Inline requested after a nested render",
		Suggestion: "Call Settings.Inline before including any other node",
	},
	"R009": {
		Category: CategoryUsage,
		Message:  "Node has been released",
	},
	"R010": {
		Category: CategoryUsage,
		Message:  "Duplicate tracked field",
	},
	"R011": {
		Category:   CategoryUsage,
		Message:    "Render output could not be parsed",
		Suggestion: "Set a container tag that accepts the output, e.g. tbody for table rows",
	},
	"R012": {
		Category:   CategoryUsage,
		Message:    "Anchor element not found",
		Suggestion: "Include an element with the expected id in the shell markup",
	},

	// ============================================
	// Config Errors (C001-C099)
	// ============================================

	"C001": {
		Category:   CategoryConfig,
		Message:    "Invalid configuration",
		Suggestion: "Check bind.json against the documented defaults",
	},
	"C002": {
		Category: CategoryConfig,
		Message:  "Configuration file unreadable",
	},

	// ============================================
	// Protocol Errors (P001-P099)
	// ============================================

	"P001": {
		Category: CategoryProtocol,
		Message:  "Malformed session message",
	},
	"P002": {
		Category: CategoryProtocol,
		Message:  "Event target not found",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
