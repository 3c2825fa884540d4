// Command valuetarget computes value targets and projected
// distributional targets of batches of transitions read from JSON
// files.
//
// Usage:
//
//	valuetarget estimate --type GAE --lambda 0.9 --input batch.json
//	valuetarget project --vmin -10 --vmax 10 --atoms 51 --input dist.json
package main

import (
	"log"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		log.Fatalf("valuetarget: %v", err)
	}
}
