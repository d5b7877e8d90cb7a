package main

import "github.com/jsphweid/stylerank/cmd"

func main() {
	cmd.Execute()
}
