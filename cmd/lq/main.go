package main

import "github.com/lifequest/lifequest-services/cmd/lq/root"

func main() {
	root.Execute()
}
