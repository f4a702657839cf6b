package kpistore

import (
	"fmt"

	"github.com/kpilens/kpilens/schema"
)

// PrintStoreStatus prints record store status information.
func PrintStoreStatus(status schema.StoreStatus) {
	fmt.Printf("Store Backend: %s\n", status.Backend)
	if status.Backend == schema.NoneBackend {
		return
	}
	if status.Location != "" {
		fmt.Printf("Location: %s\n", status.Location)
	}
	fmt.Printf("Records: %d\n", status.RecordCount)
	fmt.Printf("Snapshots: %d\n", status.SnapshotCount)
	fmt.Printf("Runs: %d\n", status.RunCount)
}
