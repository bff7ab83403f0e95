// Command jjvm loads and runs Java class files on a from-scratch bytecode
// interpreter.
package main

import "github.com/ymtdzzz/jjvm/cmd/jjvm/cmd"

func main() {
	cmd.Execute()
}
