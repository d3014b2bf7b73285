// Package prompt renders wizard screens as huh forms and prints wizard
// updates as styled text.
package prompt
