// Package extract turns the reservation site's semi-structured HTML into
// typed records.
//
// The site has no API: order pages are classified by a literal approval
// marker and five labeled fields located by structural proximity (a label's
// adjacent sibling or its parent's descendants). All of that knowledge lives
// in a versioned Grammar so markup drift only ever touches this package.
//
// Extraction is pure: the same (id, body) pair always produces the same
// classification. Absence of the approval marker is the normal case for most
// probed ids and is reported as StatusNotReady, not as an error.
package extract
