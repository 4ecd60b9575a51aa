/*
Copyright © 2026 JACOB ARTHURS
*/
package main

import "github.com/jacobarthurs/plangraph/cmd"

func main() {
	cmd.Execute()
}
