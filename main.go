package main

import "github.com/RyanBlaney/spectro-tab/cmd"

func main() {
	cmd.Execute()
}
