// Package errors provides coded, actionable error messages for the
// facility finder CLI.
//
// Each code maps to a category, a short message, an explanation and an
// optional hint. Route table codes (R1xx) are the codes carried by
// router.ConfigurationError, so a broken route table prints the same code
// the router reported.
//
// # Usage
//
//	if err := app.Routes(r); err != nil {
//	    errors.Fprint(os.Stderr, errors.FromError(err, errors.CodeConfigInvalid), errors.ModePretty)
//	    os.Exit(1)
//	}
//	// Output:
//	// ERROR R102: Ambiguous route pattern
//	//
//	//   route "facility_by_key" (/facility/:key): matches the same paths as route "FacilityDetail" (/facility/:id)
//	//
//	//   Two routes match exactly the same set of paths, so one of them could never be reached.
//	//
//	//   Hint: Remove the duplicate or add a constraint such as /facility/:id(\d+)
//
// Configuration syntax errors carry the finder.json location and the
// surrounding lines.
//
// Fprint also writes the single-line compact form and a JSON object for
// scripts; see Mode.
package errors
