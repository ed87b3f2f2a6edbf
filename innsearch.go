// Package innsearch provides full-text relevance search over a serialized,
// chaptered web novel. It crawls chapters from the remote table of contents,
// caches them as plain text on disk, and ranks chapters against free-text
// queries with highlighted excerpt snippets.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, fs/, http/) or their
// domain role (crawl/, score/, search/).
package innsearch
