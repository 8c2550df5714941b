// Package collection implements the geometry collection: a group-indexed
// attribute store whose arrays within a group always share one length,
// plus the facade that interprets the standard Transform, Geometry,
// Vertices and Faces groups as a hierarchy of bones owning mesh chunks.
package collection
