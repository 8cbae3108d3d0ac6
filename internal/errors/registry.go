package errors

import (
	"slices"

	"github.com/vango-dev/facilityfinder/pkg/router"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
	DocURL     string
}

// Codes not defined by the router package.
const (
	CodeViewLoad      = "R201"
	CodeAssetMissing  = "R202"
	CodeUnknownRoute  = "R203"
	CodeConfigMissing = "C001"
	CodeConfigSyntax  = "C002"
	CodeConfigInvalid = "C003"
	CodeConfigEnv     = "C004"
	CodeListen        = "S001"
	CodeTracing       = "S002"
	CodeAssetSource   = "S003"
	CodeBadArgument   = "X001"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Route table errors (R101-R199)
	// ============================================

	router.CodeDuplicateName: {
		Category:   CategoryRouting,
		Message:    "Duplicate route name",
		Detail:     "Every route needs a unique name. Names are used for reverse routing and in metrics labels.",
		Suggestion: "Rename one of the routes",
	},
	router.CodeAmbiguousPattern: {
		Category:   CategoryRouting,
		Message:    "Ambiguous route pattern",
		Detail:     "Two routes match exactly the same set of paths, so one of them could never be reached.",
		Suggestion: "Remove the duplicate or add a constraint such as /facility/:id(\\d+)",
	},
	router.CodeMalformedPattern: {
		Category:   CategoryRouting,
		Message:    "Malformed route pattern",
		Detail:     "Patterns start with '/', use ':name' for parameters and may constrain a parameter with a regular expression in parentheses.",
		Suggestion: "Check the pattern for empty parameter names and unbalanced parentheses",
	},
	router.CodeInvalidView: {
		Category:   CategoryRouting,
		Message:    "Route has no view",
		Detail:     "A route sets either an eager View or a lazy Load function, never both.",
	},
	router.CodeSealed: {
		Category:   CategoryRouting,
		Message:    "Route table already sealed",
		Detail:     "Routes are registered once at startup, before the first navigation.",
		Suggestion: "Register all routes before serving requests",
	},
	router.CodeEmptyName: {
		Category: CategoryRouting,
		Message:  "Route name is empty",
	},

	// ============================================
	// View errors (R201-R299)
	// ============================================

	CodeViewLoad: {
		Category:   CategoryView,
		Message:    "View failed to load",
		Detail:     "A lazy view's loader returned an error. The next navigation to the route retries the load.",
		Suggestion: "Check that the asset source is reachable",
	},
	CodeAssetMissing: {
		Category:   CategoryView,
		Message:    "Asset not found",
		Suggestion: "Check assets.dir or the S3 bucket and prefix",
	},
	CodeUnknownRoute: {
		Category: CategoryView,
		Message:  "Unknown route name",
	},

	// ============================================
	// Config errors (C001-C099)
	// ============================================

	CodeConfigMissing: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Detail:     "No finder.json was found in the given directory or any parent directory.",
		Suggestion: "Create finder.json or run without --config to use the defaults",
	},
	CodeConfigSyntax: {
		Category: CategoryConfig,
		Message:  "Invalid JSON in configuration file",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeConfigEnv: {
		Category:   CategoryConfig,
		Message:    "Invalid environment override",
		Suggestion: "Check the FINDER_* environment variables",
	},

	// ============================================
	// Server errors (S001-S099)
	// ============================================

	CodeListen: {
		Category:   CategoryServer,
		Message:    "Could not start server",
		Suggestion: "Is another process listening on the same port?",
	},
	CodeTracing: {
		Category: CategoryServer,
		Message:  "Could not set up tracing",
	},
	CodeAssetSource: {
		Category: CategoryServer,
		Message:  "Could not set up the asset source",
	},

	// ============================================
	// CLI errors (X001-X099)
	// ============================================

	CodeBadArgument: {
		Category: CategoryCLI,
		Message:  "Invalid argument",
	},
}

// GetAllCodes returns all registered error codes in order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
