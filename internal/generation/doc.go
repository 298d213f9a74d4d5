// Package generation turns content into artifacts through a remote language
// model: it renders the per-type system prompts, post-processes raw model
// output, scores result quality, and drives the bounded refinement loop
// that re-prompts until the output is good enough.
//
// The Gateway interface is the boundary to the LLM transport; the concrete
// implementation lives in internal/platform/openai.
package generation
