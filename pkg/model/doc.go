// Package model defines the data shared by every formkit component: field
// descriptors as delivered by the remote configuration service, the per form
// type configuration aggregate, the dynamically typed form values and the
// location records used by the address cascade.
//
// JSON tags follow the configuration service wire format (`field_id`,
// `display_name`, `is_enabled`, ...). Form values are a closed tagged union
// (`Value`) so callers never type-sniff `any` payloads; conversion from raw
// input happens once, in the fieldtypes package.
package model
