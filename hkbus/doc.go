/*
Package hkbus holds the Hong Kong transit data model shared by every other
package: operators, bilingual text, coordinates, stops and routes.

The JSON layout matches the published data sheet, so a Route or Stop can be
decoded straight from it:

	var r hkbus.Route
	if err := json.Unmarshal(raw, &r); err != nil {
	    return err
	}
	bound := r.IDBound(hkbus.KMB)
	circular := r.IsCircular()

Fields that the data sheet emits as either a number or a string (serviceType,
jt) are normalised on decode.
*/
package hkbus
