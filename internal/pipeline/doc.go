// Package pipeline defines the PDF ingestion unit of work: fetch an object,
// partition it into elements, store the elements, and publish a completion
// notification. Backends live in sibling packages and satisfy the interfaces
// declared here.
package pipeline
