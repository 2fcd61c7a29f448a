// Package batch defines the value model for content batches: the ordered
// table/record/field structures submitted to the insertion engine, and the
// sealed Value union that every field holds.
//
// A Value is one of a small closed set of variants: the scalar types Null,
// String, Int, Float, and Bool; the containers Array and Object; and the two
// reference types LocalRef and DBRef. Reference values are placeholders that
// the engine replaces with concrete identifiers before a record is written.
//
// Declaration order is load-bearing everywhere in this package: a record may
// reference an earlier record's identifier, so tables, records, and fields are
// all explicitly ordered slices rather than Go maps.
package batch
