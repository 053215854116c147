// File: main.go
package main

import "github.com/xkilldash9x/pagewright/cmd"

func main() {
	cmd.Execute()
}
