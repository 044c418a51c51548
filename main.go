package main

import "github.com/fasrc/a2rchi-sitemap-ripper/cmd"

func main() {
	cmd.Execute()
}
