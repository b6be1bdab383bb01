/*
Package widget precomputes favourite route data for home screen widgets.

Widgets run with little memory and no access to the data sheet, so all they
need is assembled ahead of time: the merged stop list of the route, its
branches, the relevant service days and holidays, and operator specific
lookups (matching CTB stops of joint routes, minibus branch GTFS ids, light
rail stops and so on).

# Basic Usage

	snap, _ := reg.Snapshot()
	b := widget.NewBuilder(snap, "en", nil)
	data, err := b.Build(fav)
	payload, err := widget.Encode(data, true)

	// On the widget side:
	display, err := widget.BuildDisplay(payload, origin, time.Now())

Encode and Decode round trip: decoding an encoded payload yields an equal
value. Fingerprint hashes a payload so unchanged data can be skipped.
*/
package widget
