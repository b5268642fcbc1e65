// Package prayer implements the Prayer Fan-out Planner (C6): the one
// content domain whose sync is not a flat list but a Cartesian product
// of locations, calculation methods, schools, and days.
//
// Syncer owns a single (location, method, school) slice: it resolves
// the slice's date range, fetches one day's timings at a time through
// pkg/httpclient, and upserts each day through pkg/storage, running
// the whole slice under pkg/syncengine's gating and logging.
//
// Planner owns enumerating every slice and dispatching it under an
// operator-configured concurrency cap, partitioning work across
// workers by location id so each worker's politeness delay between
// upstream calls means something for the location it is hammering.
package prayer
