package digest

// Pending keeps the tasks waiting on the user's attention, in source order.
func Pending(tasks []Task) []Task {
	pending := []Task{}
	for _, t := range tasks {
		if t.AssigneeStatus == StatusUpcoming || t.AssigneeStatus == StatusInbox {
			pending = append(pending, t)
		}
	}
	return pending
}
