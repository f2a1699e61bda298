// Package messaging publishes messages to a broker without tying callers to it.
//
// Kafka, NATS, NSQ and Google Pub/Sub are supported. Callers select one with
// NewFromDriver and depend only on Publisher.
package messaging
