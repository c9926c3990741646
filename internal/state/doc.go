// Package state holds the selection and query state machine behind the
// browser.
//
// # Phases
//
//	Idle ──Select──▶ Awaiting ──Resolve──▶ Ready
//	                    ▲                     │
//	                    └───────Select────────┘
//
// Select and SelectIndex clear the live query, record the selection, enter
// Awaiting and hand back a Dispatch naming the request to send. The caller
// performs the request off the event loop and feeds the result back through
// Resolve.
//
// # Stale responses
//
// Each dispatch increments a sequence number. Resolve applies an Outcome only
// when its Seq equals the latest dispatch, so if the user picks A and then B
// and A's response arrives last, A's records never reach the screen:
//
//	d1, _ := c.SelectIndex(4, ceiling)  // seq 1
//	d2, _ := c.SelectIndex(9, ceiling)  // seq 2
//	c.Resolve(Outcome{Seq: d2.Seq, Records: b})  // applied
//	c.Resolve(Outcome{Seq: d1.Seq, Records: a})  // dropped
//
// A failed request clears loading and records the error; the previous
// recommendations stay visible.
//
// # Snapshots
//
// Snapshot returns copies of every slice so renderers can keep them without
// aliasing controller state. Snapshot.Body decides between the loading
// indicator, the results list and an empty area.
//
// The Controller has no locks. It is owned by the Bubble Tea event loop, or by
// a single CLI goroutine.
package state
