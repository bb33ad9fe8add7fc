// Command finsight ingests PDF financial disclosure documents and answers
// questions about them from the terminal or over HTTP.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
