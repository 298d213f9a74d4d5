// Package api contains the HTTP layer: request/response models, handlers
// for synchronous augmentation and the deferred task queue, and the error
// mapping that keeps internal details out of client responses.
package api
