// Package main provides the entry point for the leakwatch CLI.
//
// leakwatch watches dark-web search engines and onion sites for mentions of
// the companies it is told to monitor, archives what it finds encrypted at
// rest and alerts by email or webhook.
//
// Usage:
//
//	leakwatch init
//	leakwatch add-company "Acme Corp"
//	leakwatch scan "Acme Corp"
//	leakwatch monitor --listen 127.0.0.1:9090
//
// See --help for all available options.
package main

import "github.com/joho/godotenv"

func main() {
	// A .env file next to the binary may carry the LEAKWATCH_* secrets.
	_ = godotenv.Load() //nolint:errcheck // the file is optional
	Execute()
}
