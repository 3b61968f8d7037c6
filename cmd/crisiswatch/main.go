// Command crisiswatch labels economic crisis years in country-year indicator tables.
package main

import "github.com/hed1ad/crisiswatch/internal/cli"

func main() {
	cli.Execute()
}
