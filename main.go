// The main package for the fbrefcrawl executable.
package main

import "github.com/fbstats/fbref-crawler/cmd"

func main() {
	cmd.Execute()
}
