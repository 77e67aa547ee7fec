// Package main provides the entry point for the arcache CLI.
//
// arcache fetches remote archives over HTTP, extracts their entries, and
// stores each entry in a content-addressed cache keyed by payload digest.
//
// Usage:
//
//	arcache run <url> [<url>...]
//	arcache run --config batch.yaml
//
// See --help for all available options.
package main

// main is the entry point for arcache.
func main() {
	Execute()
}
