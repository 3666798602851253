package main

import "github.com/jetcrabcollab/cpm/app/cmd"

func main() {
	cmd.Execute()
}
