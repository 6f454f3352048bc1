// Package cluster groups standardized feature vectors into clusters.
//
// Responsibilities: the pairwise distance matrix, the greedy
// IterativeNeighbors chaining algorithm, and the interchangeable standard
// algorithms (k-means, agglomerative, DBSCAN) used as alternatives or as the
// binary splitter of the recluster stage.
//
// Every Clusterer keeps its working state (distance matrix, visited set,
// labels) local to one Labels call, so a single value may be shared between
// goroutines.
package cluster
