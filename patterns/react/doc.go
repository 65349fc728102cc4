// Package react implements the reason-and-act conversation loop that turns
// a single user message into a final assistant reply.
//
// Each round sends the transcript to the model together with the tool
// catalog's descriptions. When the model answers with tool calls, the loop
// executes them, appends their results to the transcript and starts the
// next round. When the model answers with plain content, that content is
// the reply. A round cap bounds runaway tool use.
package react
