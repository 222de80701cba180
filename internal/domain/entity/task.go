package entity

import "time"

const DefaultMaxSteps = 25

// Task is the immutable goal a session works toward.
type Task struct {
	Goal      string
	MaxSteps  int
	CreatedAt time.Time
}

func NewTask(goal string, maxSteps int) Task {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	return Task{
		Goal:      goal,
		MaxSteps:  maxSteps,
		CreatedAt: time.Now(),
	}
}
