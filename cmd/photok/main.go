package main

import "os"

func main() {
	err := rootCmd.Execute()
	shutdown()
	if err != nil {
		os.Exit(1)
	}
}
