// Package pubsub provides the in-process topic fanout that carries a
// round's frames to its subscribers. The Hub satisfies the engine's
// Publisher contract: Publish is fire-and-forget, delivery is best effort,
// and a slow subscriber drops frames rather than stall the publishing
// round.
//
// Subscribers take either one exact topic (Subscribe) or a whole topic
// subtree (SubscribeTree), which is what an SSE handler uses to follow
// every persona of a round plus its done topic through a single channel.
package pubsub
