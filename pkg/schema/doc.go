// Package schema exports form configurations as OpenAPI 3 component schemas
// and validates records against them with kin-openapi.
//
// Each enabled field becomes a property of an object schema named after the
// form type. Presentation data that has no JSON Schema keyword (label,
// category, sort order, field type) travels in x-formkit extensions so a
// configuration can be read back from an exported document.
package schema
