// Package domain contains the core entities of the content generation
// engine: generated artifacts and the vocabulary of artifact types. Domain
// objects validate themselves and carry no persistence concerns.
package domain
