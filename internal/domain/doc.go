// Package domain models the enrichment and distribution core of the
// disaster-response coordination platform.
//
// # Enrichment
//
// Domain records (disasters, resources, reports) are enriched by external,
// unreliable services: free-text location descriptions are geocoded to
// coordinates, and report content is scored for credibility by a generative
// analysis provider. Both enrichment kinds are resolved through an ordered
// provider fallback chain and memoized in a TTL cache, so repeated requests
// for the same input never hit a rate-limited API twice within the TTL.
//
// # Distribution
//
// Every successful write to a tracked entity publishes a [MutationEvent] to
// the topic of its parent disaster. Topics are plain strings of the form
// "disaster:<id>". Delivery is best-effort to currently connected observers;
// there is no replay or history.
//
// # Provenance
//
// Enrichment results carry the name of the provider that answered, so
// downstream consumers can tell a Mapbox geocode from a Nominatim one and a
// generative analysis from the deterministic heuristic floor.
package domain
