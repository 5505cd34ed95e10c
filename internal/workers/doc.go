/*
Package workers sizes and runs small goroutine pools.

Count derives a worker count from runtime.GOMAXPROCS rather than
runtime.NumCPU, so a container limited to 2 CPUs on a 64-core node gets 2
(or 4 for I/O work), not 64. The SEARCH_WORKERS environment variable pins the
count:

	env:
	- name: SEARCH_WORKERS
	  value: "4"

ForEach fans a slice out to a bounded number of goroutines. The search index
uses it to walk each configured root concurrently:

	workers.ForEach(roots, workers.ForIO(len(roots)), func(root string) {
	    walk(root)
	})
*/
package workers
