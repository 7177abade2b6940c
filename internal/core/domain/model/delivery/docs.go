// Package delivery contains the Delivery aggregate together with its
// lifecycle Status state machine and the closed set of shipping Providers.
package delivery
