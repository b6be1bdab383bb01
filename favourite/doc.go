// Package favourite resolves saved route stops to concrete stops.
//
// A favourite either pins a stop (FIXED) or follows the user (CLOSEST), in
// which case the stop of the route nearest to the current location is used.
// The package also computes the destination shown for a stop on a circular
// route, which depends on which half of the loop the stop lies.
package favourite
