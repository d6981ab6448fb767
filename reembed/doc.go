// Package reembed regenerates the stored embeddings of an index with a
// new or updated embedding model.
//
// Files are paged out of the repository in ID order, their chunk texts
// and file names are embedded again in batches with retry and
// exponential backoff, and centroids are recomputed from the new chunk
// vectors so similarity search stays consistent.
package reembed
