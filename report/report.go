// Package report renders the per-run digest delivered by the notifier.
package report

import (
	"fmt"
	"strings"
	"time"

	"storewatch/models"
)

// Subject is the delivery subject line for every run digest.
const Subject = "Store Status Report"

// Build renders a run digest: a header with the run timestamp and totals,
// then the online and offline stores by name. Order within each section
// follows probe order. The timestamp is rendered in now's location, so
// callers pass the reporting timezone.
func Build(results []models.StoreResult, now time.Time) string {
	var online, offline []models.StoreResult
	for _, r := range results {
		if r.IsOnline {
			online = append(online, r)
		} else {
			offline = append(offline, r)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - %s\n", Subject, now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Checked %d store(s): %d online, %d offline\n", len(results), len(online), len(offline))

	b.WriteString("\nOnline:\n")
	writeSection(&b, online)
	b.WriteString("\nOffline:\n")
	writeSection(&b, offline)

	return b.String()
}

func writeSection(b *strings.Builder, results []models.StoreResult) {
	if len(results) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	for _, r := range results {
		fmt.Fprintf(b, "  - %s (%s)\n", r.Name, r.URL)
	}
}
