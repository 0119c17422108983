package main

import "github.com/TansyBytes/tidytab-cli/cmd"

func main() {
	cmd.Execute()
}
