package patient

import (
	"sort"
	"strings"

	"github.com/jwalitptl/clinic-console/internal/model"
)

// index keeps patients in registration order together with an ID lookup.
// Both views are only changed through its methods so they never disagree.
type index struct {
	list []*model.Patient
	byID map[int]*model.Patient
}

func newIndex() *index {
	return &index{byID: make(map[int]*model.Patient)}
}

func (x *index) len() int {
	return len(x.list)
}

// insert adds p at the end. It refuses a duplicate ID.
func (x *index) insert(p *model.Patient) bool {
	if _, ok := x.byID[p.ID]; ok {
		return false
	}
	x.list = append(x.list, p)
	x.byID[p.ID] = p
	return true
}

func (x *index) get(id int) (*model.Patient, bool) {
	p, ok := x.byID[id]
	return p, ok
}

// remove deletes the patient with id and reports where it sat in the list.
func (x *index) remove(id int) (int, *model.Patient, bool) {
	p, ok := x.byID[id]
	if !ok {
		return -1, nil, false
	}
	pos := x.position(id)
	x.list = append(x.list[:pos], x.list[pos+1:]...)
	delete(x.byID, id)
	return pos, p, true
}

// restore undoes remove.
func (x *index) restore(pos int, p *model.Patient) {
	x.list = append(x.list, nil)
	copy(x.list[pos+1:], x.list[pos:])
	x.list[pos] = p
	x.byID[p.ID] = p
}

// replace swaps the stored record with the same ID for p.
func (x *index) replace(p *model.Patient) {
	if pos := x.position(p.ID); pos >= 0 {
		x.list[pos] = p
		x.byID[p.ID] = p
	}
}

func (x *index) position(id int) int {
	for i, p := range x.list {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (x *index) findByName(substr string) (*model.Patient, bool) {
	needle := strings.ToLower(substr)
	for _, p := range x.list {
		if strings.Contains(strings.ToLower(p.Name), needle) {
			return p, true
		}
	}
	return nil, false
}

func (x *index) findByUsername(username string) (*model.Patient, bool) {
	for _, p := range x.list {
		if p.Username == username {
			return p, true
		}
	}
	return nil, false
}

func (x *index) sorted() []*model.Patient {
	out := x.copies()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (x *index) copies() []*model.Patient {
	out := make([]*model.Patient, len(x.list))
	for i, p := range x.list {
		out[i] = p.Clone()
	}
	return out
}
