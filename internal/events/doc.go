// Package events provides synchronous, re-entrant publish/subscribe topics.
//
// # Architecture boundaries
//
// A [Topic] wraps an EventBus topic. Delivery is synchronous, but a publish raised while
// the topic is already delivering (for example by a handler reacting to an event) is
// queued and delivered, in order, once the current delivery returns.
//
// # What this package must NOT do
//
//   - Deliver on background goroutines.
//   - Drop or coalesce events.
//   - Import goSession or any sibling package.
package events
