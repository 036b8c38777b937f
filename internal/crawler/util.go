package crawler

import (
	"crypto/sha256"
	"fmt"
	"path"
	"time"
)

// snapshotObjectName builds a stable object path for an archived page body,
// partitioned by fetch date.
func snapshotObjectName(page Page, fetchedAt time.Time) string {
	urlHash := fmt.Sprintf("%x", sha256.Sum256([]byte(page.baseURL())))
	return path.Join(
		"pages",
		fetchedAt.Format("2006-01-02"),
		fmt.Sprintf("%s.html", urlHash),
	)
}
