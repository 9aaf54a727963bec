// Package csvfile reads a CSV export into rows keyed by header name.
//
// Input is decoded before parsing: a UTF-8 BOM is dropped, invalid UTF-8 is
// replaced with U+FFFD, and legacy single-byte exports (windows-1252,
// iso-8859-1 and other WHATWG labels) are converted to UTF-8 when an
// encoding is given.
package csvfile
