package main

import "github.com/theirongolddev/crpush/cmd"

func main() {
	cmd.Execute()
}
