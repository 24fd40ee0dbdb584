package domain

import "time"

// transitionTable maps a current status to the statuses it may move to.
type transitionTable[S ~string] map[S][]S

func (t transitionTable[S]) allows(current, next S) bool {
	for _, candidate := range t[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// stampTable maps a status to the hook that records when it was entered.
type stampTable[T any, S ~string] map[S]func(*T, time.Time)

func (s stampTable[T, S]) stamp(entity *T, status S, at time.Time) {
	if fn, ok := s[status]; ok {
		fn(entity, at)
	}
}
