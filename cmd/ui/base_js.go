//go:build js

package main

// The page is served by the API server itself, so calls stay on its origin.
const defaultBase = "/"
