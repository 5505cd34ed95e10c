// Package memory configures Go's soft memory limit in containers.
//
// Go detects CPU limits on its own but not memory limits, so a container
// that sets MEMORY_LIMIT (for example through the Kubernetes Downward API)
// gets GOMEMLIMIT set to a share of it by [ConfigureFromEnv]. The share
// left over is for the ffmpeg processes the clip executor spawns.
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// An explicit GOMEMLIMIT always wins.
package memory
