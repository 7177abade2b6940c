// Package services holds the stateless domain policies of the shipping
// service:
//   - TransitionPolicy decides whether a proposed status may be applied
//   - ProviderSelector picks the carrier for a new delivery
//   - DeliveryEstimator computes the estimated delivery time per carrier
package services
