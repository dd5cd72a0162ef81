package appointment

import "github.com/jwalitptl/clinic-console/internal/model"

// queue is the FIFO of pending appointments in admission order.
type queue struct {
	items []*model.Appointment
}

func (q *queue) Len() int {
	return len(q.items)
}

func (q *queue) push(a *model.Appointment) {
	q.items = append(q.items, a)
}

func (q *queue) pop() *model.Appointment {
	if len(q.items) == 0 {
		return nil
	}
	head := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return head
}

func (q *queue) peek() *model.Appointment {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// dropLast undoes a push.
func (q *queue) dropLast() {
	if n := len(q.items); n > 0 {
		q.items[n-1] = nil
		q.items = q.items[:n-1]
	}
}

// pushFront undoes a pop.
func (q *queue) pushFront(a *model.Appointment) {
	q.items = append([]*model.Appointment{a}, q.items...)
}

// view returns the live slice in queue order. Callers must not retain it.
func (q *queue) view() []*model.Appointment {
	return q.items
}

func (q *queue) snapshot() []*model.Appointment {
	out := make([]*model.Appointment, len(q.items))
	for i, a := range q.items {
		out[i] = a.Clone()
	}
	return out
}
