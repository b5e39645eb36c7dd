// Package flow composes stateful units into larger execution patterns.
//
// Two compositions are provided:
//
//   - Flow: chains stages in sequence so each unit's output stream feeds
//     the next unit's input stream. The chain is itself a stage, so flows
//     nest inside other flows and fan-outs.
//   - Fanout: broadcasts each input to several member stages concurrently
//     and joins their outputs into positionally ordered rows.
//
// Both compositions move failure-tagged results through unchanged, apply
// backpressure transitively through the bounded queues of their parts, and
// propagate end-of-stream when closed so that every buffered value is
// delivered before consumers observe the end.
package flow
