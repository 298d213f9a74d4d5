// Package events decouples components that request background generation
// work from the queue that performs it.
//
// The primary components are:
// - TaskRequestEvent: a request to enqueue one artifact generation task
// - EventHandler: interface for components that act on events
// - EventEmitter: interface for components that publish events
package events
