package plan

// UpdateTaskStatus returns a copy of p in which the first task with id taskID
// carries status. Task ids are assumed unique across the plan. An unknown id
// is not an error: the copy is returned unchanged, since a stale reference to
// a regenerated task is expected.
func UpdateTaskStatus(p Plan, taskID string, status Status) (Plan, error) {
	if !status.Valid() {
		_, err := ParseStatus(string(status))
		return p, err
	}

	out := p.Clone()
	for i, day := range out.DailySchedules {
		for j, t := range day.Tasks {
			if t.ID == taskID {
				out.DailySchedules[i].Tasks[j].Status = status
				return out, nil
			}
		}
	}
	return out, nil
}

// ReplacePlan installs next as the current plan. Everything comes from next
// except the streak, which always carries over from old when old exists,
// even if next already holds a streak of its own.
func ReplacePlan(old *Plan, next Plan) Plan {
	out := next.Clone()
	if old != nil {
		out.Streak = old.Streak
	}
	return out
}

// CollectMissedOrPendingForDay returns the tasks of day dayIndex that are not
// completed, in schedule order. These become the missed tasks of the next
// reschedule request. An out-of-range index yields nil.
func CollectMissedOrPendingForDay(p Plan, dayIndex int) []Task {
	if dayIndex < 0 || dayIndex >= len(p.DailySchedules) {
		return nil
	}
	var out []Task
	for _, t := range p.DailySchedules[dayIndex].Tasks {
		if t.Reschedulable() {
			out = append(out, t.clone())
		}
	}
	return out
}

// FindTask returns the task with id taskID and the index of its day.
func FindTask(p Plan, taskID string) (Task, int, bool) {
	for i, day := range p.DailySchedules {
		for _, t := range day.Tasks {
			if t.ID == taskID {
				return t, i, true
			}
		}
	}
	return Task{}, -1, false
}
