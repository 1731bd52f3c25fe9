// Package fieldtypes maps field type tags to rendering descriptors and owns
// the conversion of raw input into typed form values.
//
// Unknown tags resolve to the text descriptor so a misconfigured field still
// renders as a plain text box.
package fieldtypes
