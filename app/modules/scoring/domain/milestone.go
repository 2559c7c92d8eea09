package scoringdomain

import "fmt"

// MilestoneThresholds are the application counts that earn a milestone, ascending.
var MilestoneThresholds = []int{10, 25, 50, 100}

// MilestoneFor returns the label for count when it is exactly a threshold.
func MilestoneFor(count int) (string, bool) {
	for _, threshold := range MilestoneThresholds {
		if count == threshold {
			return MilestoneLabel(threshold), true
		}
	}
	return "", false
}

// MilestoneLabel formats the label stored on milestone activity events.
func MilestoneLabel(threshold int) string {
	return fmt.Sprintf("%d applications logged", threshold)
}
