// Package service contains the orchestration layer: it ties segmentation,
// the artifact cache, the refinement loop, and the resource governor into
// the end-to-end content augmentation flow, and adapts that flow to the
// background task queue.
package service
