package main

import "Trackshelf/cmd"

func main() {
	cmd.Execute()
}
