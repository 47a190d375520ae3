package main

import "github.com/naka-gawa/pkg-rating/cmd"

func main() {
	cmd.Execute()
}
