// Package registry maps module names to Processor implementations,
// generalizing the teacher's storage.NewStore factory switch (disk/null/s3)
// from a fixed three-way choice to an open, name-keyed registration scheme
// suited to an arbitrary number of pluggable processors.
package registry
