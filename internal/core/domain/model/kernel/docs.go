// Package kernel holds the primitives shared by every shipping aggregate:
// the UUID identifier value object and the Clock used wherever the domain
// needs the current time.
package kernel
