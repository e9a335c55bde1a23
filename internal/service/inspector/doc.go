// Package inspector lists the contents of a built module archive.
package inspector
