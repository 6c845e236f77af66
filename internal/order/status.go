package order

type Status string

const (
	StatusPending   Status = "pending"
	StatusFulfilled Status = "fulfilled"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusFulfilled, StatusCancelled:
		return true
	}
	return false
}

// pending is the only non-terminal state.
var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusFulfilled: true, StatusCancelled: true},
	StatusFulfilled: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}
