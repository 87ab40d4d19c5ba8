// main.go
package main

import (
	"fmt"
	"os"
	"time"

	"gitlab.consulting.redhat.com/ksa/health-check-rules/cmd"
)

func main() {
	printBanner()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printBanner() {
	banner := `
 ____  _   _ _____ _       ____  _   _ _     _____ ____
|  _ \| | | | ____| |     |  _ \| | | | |   | ____/ ___|
| |_) | |_| |  _| | |     | |_) | | | | |   |  _| \___ \
|  _ <|  _  | |___| |___  |  _ <| |_| | |___| |___ ___) |
|_| \_\_| |_|_____|_____| |_| \_\\___/|_____|_____|____/

 Version: 1.1.0
 Started at: %s
`
	fmt.Fprintf(os.Stderr, banner, time.Now().Format("2006-01-02 15:04:05"))
}
