// ABOUTME: Version information for duplex-go
// ABOUTME: Product identity reported by the version command
package version

const (
	// Version is the current release
	Version = "0.3.0"

	// Product is the product name
	Product = "duplex-go"
)
