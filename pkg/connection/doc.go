// Package connection manages the attach lifecycle of a PSU device.
//
// A monitored PSU can vanish at any time: the USB cable is pulled, the
// hidraw node is re-enumerated, a hub resets. The manager tracks the
// attach state, and when a loss is reported it reattaches in the
// background with exponential backoff:
//
//  1. Initial delay: 1 second
//  2. Exponential increase: 2s, 4s, 8s, 16s
//  3. Maximum delay: 30 seconds, held until successful
//  4. Reset to 1s on successful reattach
//
// Delays carry random jitter of up to 25% so multiple monitors on one
// host do not hammer the device simultaneously after a hub reset.
package connection
