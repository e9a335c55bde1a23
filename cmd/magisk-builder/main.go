// Command magisk-builder packages the module base template into a flashable zip.
package main

import "github.com/oshokin/magisk-builder/cmd/magisk-builder/cmd"

func main() {
	cmd.Execute()
}
