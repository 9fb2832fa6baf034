// Package core defines the domain model for the document graph:
// documents, chunk nodes, weighted typed edges, the graph itself,
// persisted index metadata, and the engine error taxonomy.
package core
