// Package core provides the default template extension: string and
// collection filters, HTML sanitising filters backed by bluemonday, a few
// numeric functions, the common tests, and the operator precedence table the
// parser relies on.
package core
