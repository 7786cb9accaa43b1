// Package content decides whether and how two same-path files differ.
//
// Every updated path is routed by Classify to exactly one of three
// comparators: a line differ for delimited text, a page-content differ for
// PDF documents and a full-content hash comparison for everything else.
// Each comparator returns a Verdict whose Summary is the change description
// carried into the report; an empty summary means no content difference was
// detected.
package content
